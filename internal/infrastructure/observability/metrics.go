package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// Metrics Prometheus-метрики сервиса на собственном реестре
type Metrics struct {
	registry          *prometheus.Registry
	modelState        prometheus.Gauge
	modelLoadSeconds  prometheus.Gauge
	inferenceTotal    *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
}

// NewMetrics регистрирует метрики в новом реестре
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		modelState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "colorify_model_state",
			Help: "Model readiness (0=not_started, 1=loading, 2=ready, 3=failed)",
		}),
		modelLoadSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "colorify_model_load_seconds",
			Help: "Time spent resolving and loading the model",
		}),
		inferenceTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "colorify_inference_total",
			Help: "Colorization calls by outcome",
		}, []string{"outcome"}),
		inferenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "colorify_inference_duration_seconds",
			Help:    "Duration of colorization calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) ModelStateChanged(state entity.ReadinessState) {
	m.modelState.Set(float64(state))
}

func (m *Metrics) ModelLoadFinished(took time.Duration, err error) {
	m.modelLoadSeconds.Set(took.Seconds())
}

func (m *Metrics) InferenceFinished(took time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = entity.KindOf(err).String()
	}
	m.inferenceTotal.WithLabelValues(outcome).Inc()
	m.inferenceDuration.Observe(took.Seconds())
}

// Handler отдаёт /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry нужен тестам для чтения значений
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ port.Observer = (*Metrics)(nil)
