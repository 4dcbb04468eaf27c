package entity

import (
	"errors"
	"fmt"
	"time"
)

const (
	MsgLoading    = "Model is loading... Please wait or try again in a moment."
	MsgReadFailed = "Error: Could not read image file. Please check the file format."
	MsgSuccess    = "Image colorized successfully!"
)

var (
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	ErrOutputShape         = errors.New("output data does not match its shape")
	ErrNoOutputImage       = errors.New("pipeline output has no " + OutputImageKey)
	ErrResultNotFound      = errors.New("result not found")
)

// ErrorKind вид ошибки колоризации
type ErrorKind int

const (
	KindNotReady        ErrorKind = iota + 1 // модель ещё грузится
	KindLoadFailed                           // модель не загрузилась
	KindDecodeFailed                         // не удалось прочитать изображение
	KindInferenceFailed                      // ошибка пайплайна или записи результата
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotReady:
		return "not_ready"
	case KindLoadFailed:
		return "load_failed"
	case KindDecodeFailed:
		return "decode_failed"
	case KindInferenceFailed:
		return "inference_failed"
	default:
		return "unknown"
	}
}

// ColorizeError ошибка с видом и, если есть, стеком вызова
type ColorizeError struct {
	Kind  ErrorKind
	Err   error
	Trace string
}

func (e *ColorizeError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ColorizeError) Unwrap() error {
	return e.Err
}

// Message возвращает текст для пользователя
func (e *ColorizeError) Message() string {
	switch e.Kind {
	case KindNotReady:
		return MsgLoading
	case KindLoadFailed:
		// Для пользователя это тоже «модель не готова», причина идёт следом.
		return fmt.Sprintf("%s (model failed to load: %v)", MsgLoading, e.Err)
	case KindDecodeFailed:
		return MsgReadFailed
	default:
		msg := fmt.Sprintf("Inference error: %v", e.Err)
		if e.Trace != "" {
			msg += "\n\n" + e.Trace
		}
		return msg
	}
}

// KindOf возвращает вид ошибки или 0, если это не ColorizeError
func KindOf(err error) ErrorKind {
	var cerr *ColorizeError
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}

// ColorizeResult итог одного запуска колоризации
type ColorizeResult struct {
	Path    string // путь к PNG, пустой при ошибке
	Message string // статус для логов
}

// ResultRecord зарегистрированный для выдачи результат
type ResultRecord struct {
	ID        string
	Path      string
	CreatedAt time.Time
}
