package storage

import (
	"context"
	"sync"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище собеседников бота
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Отдаём копию: апдейты обрабатываются в разных горутинах.
	cp := *r.lookup(userID, chatID)
	return &cp, nil
}

// Update меняет пользователя под мьютексом хранилища
func (r *MemoryUserRepository) Update(ctx context.Context, userID, chatID int64, fn func(user *entity.User) error) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *r.lookup(userID, chatID)
	if err := fn(&cp); err != nil {
		current := *r.users[userID]
		return &current, err
	}

	stored := cp
	r.users[userID] = &stored
	return &cp, nil
}

// lookup вызывается под r.mu
func (r *MemoryUserRepository) lookup(userID, chatID int64) *entity.User {
	user, exists := r.users[userID]
	if !exists {
		user = entity.NewUser(userID, chatID)
		r.users[userID] = user
	}
	return user
}

// Save сохраняет состояние пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	cp := *user

	r.mu.Lock()
	r.users[user.ID] = &cp
	r.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
