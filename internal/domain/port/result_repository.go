package port

import (
	"context"

	"colorify/internal/domain/entity"
)

// ResultRepository реестр готовых картинок для выдачи по ID
type ResultRepository interface {
	// Add регистрирует путь и возвращает запись с новым ID
	Add(ctx context.Context, path string) (*entity.ResultRecord, error)

	// Get возвращает запись или ErrResultNotFound
	Get(ctx context.Context, id string) (*entity.ResultRecord, error)
}
