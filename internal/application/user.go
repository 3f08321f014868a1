package app

import (
	"context"
	"fmt"

	"berry-quality/internal/apperrors"
	"berry-quality/internal/domain/entity"
	"berry-quality/internal/domain/port"
)

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
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	user.SetState(state)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// updatePreferences применяет change к копии настроек и сохраняет результат
func (s *UserService) updatePreferences(ctx context.Context, userID, chatID int64, change func(p *entity.Preferences) error) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	prefs := user.Preferences.Clone()
	if err := change(&prefs); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePreferences(ctx, userID, prefs); err != nil {
		return nil, err
	}
	user.Preferences = prefs
	return user, nil
}

// SetDetector выбирает детектор по названию
func (s *UserService) SetDetector(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	return s.updatePreferences(ctx, userID, chatID, func(p *entity.Preferences) error {
		kind, err := entity.ParseDetectorKind(name)
		if err != nil {
			return apperrors.NewValidationError("unknown detector", err)
		}
		p.Processing.Detector = kind
		return nil
	})
}

// SetBoxColor выбирает признак для цвета рамок
func (s *UserService) SetBoxColor(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	return s.updatePreferences(ctx, userID, chatID, func(p *entity.Preferences) error {
		attr, err := entity.ParseAttribute(name)
		if err != nil {
			return apperrors.NewValidationError("unknown attribute", err)
		}
		p.Processing.BoxColor = attr
		return nil
	})
}

// SetDisplayText включает или выключает подписи над рамками
func (s *UserService) SetDisplayText(ctx context.Context, userID, chatID int64, on bool) (*entity.User, error) {
	return s.updatePreferences(ctx, userID, chatID, func(p *entity.Preferences) error {
		p.Processing.DisplayText = on
		return nil
	})
}

// SetTargetRipeness задаёт целевую зрелость в процентах (1..100)
func (s *UserService) SetTargetRipeness(ctx context.Context, userID, chatID int64, percent float64) (*entity.User, error) {
	return s.updatePreferences(ctx, userID, chatID, func(p *entity.Preferences) error {
		if percent < 1 || percent > 100 {
			return apperrors.NewValidationError(fmt.Sprintf("target ripeness %.0f is out of range 1..100", percent), nil)
		}
		p.Processing.TargetRipeness = percent
		return nil
	})
}

// ToggleAttribute добавляет признак в подписи или убирает его
func (s *UserService) ToggleAttribute(ctx context.Context, userID, chatID int64, name string) (*entity.User, error) {
	return s.updatePreferences(ctx, userID, chatID, func(p *entity.Preferences) error {
		attr, err := entity.ParseAttribute(name)
		if err != nil {
			return apperrors.NewValidationError("unknown attribute", err)
		}
		var selected []entity.Attribute
		found := false
		for _, a := range p.Processing.SelectedAttributes {
			if a == attr {
				found = true
				continue
			}
			selected = append(selected, a)
		}
		if !found {
			selected = append(selected, attr)
		}
		p.Processing.SelectedAttributes = selected
		return nil
	})
}
