package observability

import (
	"time"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// Multi рассылает события нескольким наблюдателям
type Multi []port.Observer

func (m Multi) ModelStateChanged(state entity.ReadinessState) {
	for _, o := range m {
		o.ModelStateChanged(state)
	}
}

func (m Multi) ModelLoadFinished(took time.Duration, err error) {
	for _, o := range m {
		o.ModelLoadFinished(took, err)
	}
}

func (m Multi) InferenceFinished(took time.Duration, err error) {
	for _, o := range m {
		o.InferenceFinished(took, err)
	}
}

// Nop наблюдатель, который ничего не делает
type Nop struct{}

func (Nop) ModelStateChanged(entity.ReadinessState) {}
func (Nop) ModelLoadFinished(time.Duration, error)  {}
func (Nop) InferenceFinished(time.Duration, error)  {}
