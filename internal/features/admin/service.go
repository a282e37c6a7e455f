// Package admin — service.go: вход по паролю и ручные операции над движком.
package admin

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	CreateSession(ctx context.Context, s *AdminSession) error
	GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error)
	DeactivateSessions(ctx context.Context, userID int64) error
	TouchSession(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	CountFailedAttempts(ctx context.Context, userID int64, since time.Time) (int, error)
}

// MemberChecker проверяет, что пользователь зарегистрирован.
type MemberChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// StreakRecomputer пересчитывает стрики.
type StreakRecomputer interface {
	Recompute(ctx context.Context, userID int64, kind streak.ActivityKind) (streak.Snapshot, error)
}

// Emitter выпускает празднования.
type Emitter interface {
	Emit(ctx context.Context, userID int64, eventType celebration.EventType, c celebration.Context) (*celebration.Event, error)
}

// Service управляет админ-доступом.
type Service struct {
	repo         Store
	cfg          *config.Config
	members      MemberChecker
	streaks      StreakRecomputer
	celebrations Emitter
	now          func() time.Time
}

// NewService создаёт сервис админ-панели.
func NewService(repo Store, cfg *config.Config, members MemberChecker, streaks StreakRecomputer, celebrations Emitter) *Service {
	return &Service{
		repo:         repo,
		cfg:          cfg,
		members:      members,
		streaks:      streaks,
		celebrations: celebrations,
		now:          time.Now,
	}
}

// Login проверяет пароль и открывает сессию на SessionTTL.
// После MaxFailedAttempts неудач за LockoutPeriod вход блокируется.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	failed, err := s.repo.CountFailedAttempts(ctx, userID, s.now().Add(-LockoutPeriod))
	if err != nil {
		return err
	}
	if failed >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := VerifyPassword(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Попытка входа не записана")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	token, err := newSessionToken()
	if err != nil {
		return err
	}
	if err := s.repo.CreateSession(ctx, &AdminSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    s.now().Add(SessionTTL),
	}); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл")
	return nil
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSessions(ctx, userID)
}

// Authorize проверяет, что пользователь — админ с действующей сессией.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	if _, err := s.repo.GetActiveSession(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.TouchSession(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось обновить активность сессии")
	}
	return nil
}

// GrantBadge выдаёт бейдж вручную через празднование badge_unlock.
// Повторная выдача не создаёт второй записи о бейдже.
func (s *Service) GrantBadge(ctx context.Context, adminID, targetID int64, badge celebration.BadgeType) (*celebration.Event, error) {
	if err := s.Authorize(ctx, adminID); err != nil {
		return nil, err
	}
	if _, ok := celebration.Badges[badge]; !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownBadge, badge)
	}
	if err := s.checkTarget(ctx, targetID); err != nil {
		return nil, err
	}

	e, err := s.celebrations.Emit(ctx, targetID, celebration.EventBadgeUnlock, celebration.Context{BadgeUnlocked: badge})
	if err != nil {
		return e, err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  targetID,
		"badge":    badge,
	}).Info("Бейдж выдан вручную")
	return e, nil
}

// Recompute принудительно пересчитывает стрики пользователя по всем видам.
func (s *Service) Recompute(ctx context.Context, adminID, targetID int64) (map[streak.ActivityKind]streak.Snapshot, error) {
	if err := s.Authorize(ctx, adminID); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, targetID); err != nil {
		return nil, err
	}
	out := make(map[streak.ActivityKind]streak.Snapshot, len(streak.Kinds))
	for _, kind := range streak.Kinds {
		snap, err := s.streaks.Recompute(ctx, targetID, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = snap
	}
	log.WithFields(log.Fields{"admin_id": adminID, "user_id": targetID}).Info("Стрики пересчитаны вручную")
	return out, nil
}

// checkTarget не даёт писать празднования и снимки незнакомому пользователю.
func (s *Service) checkTarget(ctx context.Context, targetID int64) error {
	ok, err := s.members.IsMember(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user_id=%d: %w", targetID, common.ErrUserNotFound)
	}
	return nil
}
