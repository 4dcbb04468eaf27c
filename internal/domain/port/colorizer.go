package port

import (
	"context"

	"colorify/internal/domain/entity"
)

// Colorizer загруженный пайплайн колоризации.
// Один экземпляр на процесс, вызывается конкурентно только на чтение.
type Colorizer interface {
	// Colorize раскрашивает RGB-кадр и возвращает именованные массивы результата
	Colorize(ctx context.Context, frame *entity.Frame) (entity.PipelineOutput, error)

	// Close освобождает ресурсы рантайма
	Close() error
}

// PipelineBuilder строит пайплайн из локальной директории модели
type PipelineBuilder interface {
	Build(modelDir string) (Colorizer, error)
}

// ModelSource находит модель в кэше или скачивает её
type ModelSource interface {
	// Resolve возвращает локальную директорию с файлами модели
	Resolve(ctx context.Context) (string, error)
}
