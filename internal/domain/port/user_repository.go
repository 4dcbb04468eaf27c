package port

import (
	"context"

	"colorify/internal/domain/entity"
)

// UserRepository хранилище собеседников бота
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// Update атомарно меняет пользователя функцией fn.
	// Если fn вернула ошибку, ничего не сохраняется, а ошибка возвращается вместе с текущей копией.
	Update(ctx context.Context, userID, chatID int64, fn func(user *entity.User) error) (*entity.User, error)
}
