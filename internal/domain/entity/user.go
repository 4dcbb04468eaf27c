package entity

import "time"

// UserState состояние диалога в чате бота
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ждём чёрно-белое фото
	StateProcessing    UserState = "processing"     // Фото раскрашивается
)

// User собеседник Telegram-бота
type User struct {
	ID         int64     // Telegram User ID
	ChatID     int64     // Telegram Chat ID
	State      UserState // Текущее состояние диалога
	Colorized  int       // Сколько фото раскрашено
	LastResult string    // Путь к последнему результату
	UpdatedAt  time.Time
}

// NewUser создаёт пользователя в главном меню
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:        userID,
		ChatID:    chatID,
		State:     StateMainMenu,
		UpdatedAt: time.Now(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
	u.UpdatedAt = time.Now()
}

// Busy сообщает, что фото пользователя ещё в работе
func (u *User) Busy() bool {
	return u.State == StateProcessing
}

// RecordResult запоминает готовый результат и возвращает в меню
func (u *User) RecordResult(path string) {
	u.Colorized++
	u.LastResult = path
	u.SetState(StateMainMenu)
}
