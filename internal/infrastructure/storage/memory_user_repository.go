package storage

import (
	"context"
	"sync"

	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu       sync.RWMutex
	users    map[int64]*entity.User
	defaults entity.Preferences
}

// NewMemoryUserRepository создаёт хранилище; новые пользователи получают копию defaults
func NewMemoryUserRepository(defaults entity.Preferences) *MemoryUserRepository {
	return &MemoryUserRepository{
		users:    make(map[int64]*entity.User),
		defaults: defaults.Clone(),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	if exists {
		cp := *user
		cp.Preferences = user.Preferences.Clone()
		r.mu.RUnlock()
		return &cp, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if user, exists = r.users[userID]; !exists {
		user = entity.NewUserWithPreferences(userID, chatID, r.defaults)
		r.users[userID] = user
	}
	cp := *user
	cp.Preferences = user.Preferences.Clone()
	return &cp, nil
}

// Save сохраняет пользователя целиком
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	cp := *user
	cp.Preferences = user.Preferences.Clone()

	r.mu.Lock()
	r.users[user.ID] = &cp
	r.mu.Unlock()
	return nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SetState(state)
	}
	return nil
}

// UpdatePreferences заменяет настройки пользователя
func (r *MemoryUserRepository) UpdatePreferences(ctx context.Context, userID int64, prefs entity.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.Preferences = prefs.Clone()
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
