// Package members — service.go содержит бизнес-логику управления пользователями.
package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	Upsert(ctx context.Context, userID int64, p Profile) error
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	SetTimezone(ctx context.Context, userID int64, tz string) error
	SetReminders(ctx context.Context, userID int64, enabled bool) error
}

// Service управляет пользователями бота.
type Service struct {
	repo       Store
	defaultLoc *time.Location // APP_TIMEZONE
}

// NewService создаёт новый сервис участников.
func NewService(repo Store, defaultLoc *time.Location) *Service {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Service{repo: repo, defaultLoc: defaultLoc}
}

// EnsureMember регистрирует пользователя при первом обращении
// и обновляет имя/username при последующих.
func (s *Service) EnsureMember(ctx context.Context, userID int64, p Profile) error {
	if err := s.repo.Upsert(ctx, userID, p); err != nil {
		return err
	}
	log.WithField("user_id", userID).Debug("EnsureMember ok")
	return nil
}

// IsMember проверяет, зарегистрирован ли пользователь.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// Get возвращает пользователя.
func (s *Service) Get(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Location возвращает календарь пользователя: его пояс или APP_TIMEZONE.
// Неизвестный пользователь получает пояс по умолчанию без ошибки.
func (s *Service) Location(ctx context.Context, userID int64) (*time.Location, error) {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			return s.defaultLoc, nil
		}
		return nil, err
	}
	if m.Timezone == nil {
		return s.defaultLoc, nil
	}
	return common.LoadLocation(*m.Timezone, s.defaultLoc), nil
}

// SetTimezone проверяет имя пояса и сохраняет его.
func (s *Service) SetTimezone(ctx context.Context, userID int64, name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" || name == "Local" {
		return nil, fmt.Errorf("%q: %w", name, common.ErrInvalidTimezone)
	}
	if err := s.repo.SetTimezone(ctx, userID, loc.String()); err != nil {
		return nil, err
	}
	return loc, nil
}

// SetReminders включает или выключает напоминания.
func (s *Service) SetReminders(ctx context.Context, userID int64, enabled bool) error {
	return s.repo.SetReminders(ctx, userID, enabled)
}
