package port

import (
	"time"

	"colorify/internal/domain/entity"
)

// Observer получает события загрузки модели и инференса (метрики, Sentry)
type Observer interface {
	ModelStateChanged(state entity.ReadinessState)
	ModelLoadFinished(took time.Duration, err error)
	InferenceFinished(took time.Duration, err error)
}
