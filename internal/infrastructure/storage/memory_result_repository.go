package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// MemoryResultRepository помнит, какой файл отдавать по ID результата.
// Сами файлы не удаляет: временную директорию чистит ОС.
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results map[string]*entity.ResultRecord
	now     func() time.Time
}

// NewMemoryResultRepository создаёт пустой реестр
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{
		results: make(map[string]*entity.ResultRecord),
		now:     time.Now,
	}
}

// Add регистрирует путь под новым UUID
func (r *MemoryResultRepository) Add(ctx context.Context, path string) (*entity.ResultRecord, error) {
	rec := &entity.ResultRecord{
		ID:        uuid.NewString(),
		Path:      path,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.results[rec.ID] = rec
	r.mu.Unlock()

	return rec, nil
}

// Get возвращает запись по ID
func (r *MemoryResultRepository) Get(ctx context.Context, id string) (*entity.ResultRecord, error) {
	r.mu.RLock()
	rec, ok := r.results[id]
	r.mu.RUnlock()

	if !ok {
		return nil, entity.ErrResultNotFound
	}
	return rec, nil
}

var _ port.ResultRepository = (*MemoryResultRepository)(nil)
