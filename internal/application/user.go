package app

import (
	"context"
	"errors"

	"colorify/internal/domain/entity"
	"colorify/internal/domain/port"
)

// ErrBusy фото пользователя ещё раскрашивается
var ErrBusy = errors.New("previous photo is still processing")

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(user *entity.User) error {
		user.SetState(state)
		return nil
	})
}

func (s *UserService) BeginColorize(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// StartProcessing помечает пользователя занятым; второй параллельный запрос получает ErrBusy.
// Проверка и запись идут одним Update.
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(user *entity.User) error {
		if user.Busy() {
			return ErrBusy
		}
		user.SetState(entity.StateProcessing)
		return nil
	})
}

// Finish возвращает пользователя в меню; непустой path засчитывается как результат
func (s *UserService) Finish(ctx context.Context, userID, chatID int64, path string) (*entity.User, error) {
	return s.repo.Update(ctx, userID, chatID, func(user *entity.User) error {
		if path != "" {
			user.RecordResult(path)
		} else {
			user.SetState(entity.StateMainMenu)
		}
		return nil
	})
}
