package port

import "colorify/internal/domain/entity"

// ImageCodec читает и пишет изображения на диске
type ImageCodec interface {
	// Decode читает файл и возвращает пиксели в порядке RGB
	Decode(path string) (*entity.Frame, error)

	// EncodePNG сохраняет кадр в PNG
	EncodePNG(path string, frame *entity.Frame) error
}
