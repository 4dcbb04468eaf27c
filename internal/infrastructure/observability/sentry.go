package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// SentryReporter отправляет в Sentry провалы загрузки и инференса.
// Без DSN ничего не делает.
type SentryReporter struct {
	enabled bool
}

// NewSentryReporter инициализирует клиент Sentry, если задан DSN
func NewSentryReporter(dsn, environment, release string) (*SentryReporter, error) {
	if dsn == "" {
		return &SentryReporter{}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}
	return &SentryReporter{enabled: true}, nil
}

// Enabled сообщает, настроен ли Sentry
func (r *SentryReporter) Enabled() bool {
	return r.enabled
}

func (r *SentryReporter) ModelStateChanged(state entity.ReadinessState) {}

func (r *SentryReporter) ModelLoadFinished(took time.Duration, err error) {
	if !r.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", "model_load")
		scope.SetContext("timing", sentry.Context{"took": took.String()})
		sentry.CaptureException(err)
	})
}

// InferenceFinished репортит только сбои пайплайна: нечитаемые файлы и
// запросы до готовности модели — не ошибки сервиса.
func (r *SentryReporter) InferenceFinished(took time.Duration, err error) {
	if !r.enabled || entity.KindOf(err) != entity.KindInferenceFailed {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", "inference")
		scope.SetContext("timing", sentry.Context{"took": took.String()})
		sentry.CaptureException(err)
	})
}

// Flush дожидается отправки событий перед выходом
func (r *SentryReporter) Flush(timeout time.Duration) {
	if r.enabled {
		sentry.Flush(timeout)
	}
}

var _ port.Observer = (*SentryReporter)(nil)
