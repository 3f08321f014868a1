package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото клубники
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID          int64       // Telegram User ID
	ChatID      int64       // Telegram Chat ID
	State       UserState   // Текущее состояние пользователя
	Preferences Preferences // Настройки обработки и визуализации
}

// NewUser создаёт нового пользователя с начальным состоянием и настройками по умолчанию
func NewUser(userID, chatID int64) *User {
	return NewUserWithPreferences(userID, chatID, DefaultPreferences())
}

// NewUserWithPreferences создаёт пользователя с заданными настройками
func NewUserWithPreferences(userID, chatID int64, prefs Preferences) *User {
	return &User{
		ID:          userID,
		ChatID:      chatID,
		State:       StateMainMenu,
		Preferences: prefs.Clone(),
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}
