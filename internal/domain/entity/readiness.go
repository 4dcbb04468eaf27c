package entity

// ReadinessState состояние загрузки модели
type ReadinessState int32

const (
	StateNotStarted ReadinessState = iota // загрузка ещё не запускалась
	StateLoading                          // модель загружается
	StateReady                            // модель готова
	StateFailed                           // загрузка провалилась, навсегда
)

// String возвращает имя состояния для логов и /health
func (s ReadinessState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal сообщает, что из состояния больше нет переходов
func (s ReadinessState) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// CanTransition проверяет допустимость перехода.
// Разрешены только not_started → loading → ready | failed.
func (s ReadinessState) CanTransition(next ReadinessState) bool {
	switch s {
	case StateNotStarted:
		return next == StateLoading
	case StateLoading:
		return next == StateReady || next == StateFailed
	default:
		return false
	}
}
