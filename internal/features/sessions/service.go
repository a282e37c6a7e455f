// Package sessions — service.go: начало, завершение и оценка сессий.
// Завершение запускает движок стриков и празднований.
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	StartSession(ctx context.Context, s *Session) error
	GetOpen(ctx context.Context, userID int64, kind streak.ActivityKind) (*Session, error)
	CompleteSession(ctx context.Context, id uuid.UUID, completedAt time.Time, durationSeconds int) error
	CountCompleted(ctx context.Context, userID int64, kind streak.ActivityKind) (int, error)
	LatestCompleted(ctx context.Context, userID int64) (*Session, error)
	SetRating(ctx context.Context, id uuid.UUID, rating int) error
}

// StreakEngine — часть сервиса стриков, которую использует завершение сессии.
type StreakEngine interface {
	HasActivityToday(ctx context.Context, userID int64, kind streak.ActivityKind) (bool, error)
	Recompute(ctx context.Context, userID int64, kind streak.ActivityKind) (streak.Snapshot, error)
}

// Celebrator — часть сервиса празднований, которую использует завершение сессии.
type Celebrator interface {
	Emit(ctx context.Context, userID int64, eventType celebration.EventType, c celebration.Context) (*celebration.Event, error)
	CheckMilestones(ctx context.Context, userID int64) ([]string, error)
	TriggerMilestone(ctx context.Context, userID int64, id string) (*celebration.Event, error)
}

// Result — итог завершения сессии для ответа пользователю.
type Result struct {
	Session      *Session
	Streak       streak.Snapshot
	Milestones   []string
	Celebrations []*celebration.Event
}

// Service управляет сессиями.
type Service struct {
	repo         Store
	streaks      StreakEngine
	celebrations Celebrator
	cfg          *config.Config
	now          func() time.Time
}

// NewService создаёт новый сервис сессий.
func NewService(repo Store, streaks StreakEngine, celebrations Celebrator, cfg *config.Config) *Service {
	return &Service{
		repo:         repo,
		streaks:      streaks,
		celebrations: celebrations,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) checkKind(kind streak.ActivityKind) error {
	if !kind.Valid() {
		return common.ErrUnknownActivity
	}
	if kind == streak.KindWorkout && !s.cfg.FeatureWorkoutsEnabled {
		return common.ErrFeatureDisabled
	}
	return nil
}

// Start начинает новую сессию. Незавершённая сессия того же вида бросается.
// alreadyActiveToday сообщает, что сегодняшний день для стрика уже засчитан.
func (s *Service) Start(ctx context.Context, userID int64, kind streak.ActivityKind) (*Session, bool, error) {
	if err := s.checkKind(kind); err != nil {
		return nil, false, err
	}

	already, err := s.streaks.HasActivityToday(ctx, userID, kind)
	if err != nil {
		return nil, false, err
	}

	sess := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		StartedAt: s.now(),
	}
	if err := s.repo.StartSession(ctx, sess); err != nil {
		return nil, false, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"kind":       kind,
		"session_id": sess.ID,
	}).Info("Сессия начата")
	return sess, already, nil
}

// Complete завершает открытую сессию вида kind (пустой kind — последнюю открытую).
//
// После сохранения движок отрабатывает по порядку:
//  1. Пересчёт стрика
//  2. Празднование завершения
//  3. Бейдж за первую сессию этого вида
//  4. Вехи стрика, если это первое завершение за день
//
// Ошибки движка логируются и не возвращаются: сессия уже сохранена.
func (s *Service) Complete(ctx context.Context, userID int64, kind streak.ActivityKind) (*Result, error) {
	if kind != "" {
		if err := s.checkKind(kind); err != nil {
			return nil, err
		}
	}

	sess, err := s.repo.GetOpen(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	alreadyToday, err := s.streaks.HasActivityToday(ctx, userID, sess.Kind)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось проверить активность за сегодня")
	}

	completedAt := s.now()
	duration := completedAt.Sub(sess.StartedAt)
	if duration > MaxDuration {
		duration = MaxDuration
	}
	if duration < 0 {
		duration = 0
	}
	if err := s.repo.CompleteSession(ctx, sess.ID, completedAt, int(duration.Seconds())); err != nil {
		return nil, err
	}
	sess.CompletedAt = &completedAt
	sess.DurationSeconds = int(duration.Seconds())

	log.WithFields(log.Fields{
		"user_id":    userID,
		"kind":       sess.Kind,
		"session_id": sess.ID,
		"minutes":    sess.Minutes(),
	}).Info("Сессия завершена")

	return s.runEngine(ctx, sess, alreadyToday), nil
}

func (s *Service) runEngine(ctx context.Context, sess *Session, alreadyToday bool) *Result {
	res := &Result{Session: sess}
	fields := log.Fields{"user_id": sess.UserID, "kind": sess.Kind, "session_id": sess.ID}

	snap, err := s.streaks.Recompute(ctx, sess.UserID, sess.Kind)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Ошибка пересчёта стрика")
	}
	res.Streak = snap

	s.emit(ctx, res, celebration.CompletionEvent(sess.Kind), celebration.Context{
		Streak:  snap.Current,
		Kind:    sess.Kind,
		Minutes: sess.Minutes(),
	})

	count, err := s.repo.CountCompleted(ctx, sess.UserID, sess.Kind)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Ошибка подсчёта сессий")
	} else if count == 1 {
		s.emit(ctx, res, celebration.EventBadgeUnlock, celebration.Context{
			Kind:          sess.Kind,
			BadgeUnlocked: celebration.FirstBadge(sess.Kind),
		})
	}

	// Повторная сессия за день не меняет стрик: веха уже отпразднована.
	if alreadyToday {
		return res
	}
	ids, err := s.celebrations.CheckMilestones(ctx, sess.UserID)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Ошибка проверки вех")
		return res
	}
	for _, id := range ids {
		// Серия другого вида сегодня не менялась.
		if kind, _, ok := celebration.ParseMilestoneID(id); !ok || kind != sess.Kind {
			continue
		}
		e, err := s.celebrations.TriggerMilestone(ctx, sess.UserID, id)
		if e != nil {
			res.Celebrations = append(res.Celebrations, e)
		}
		if err != nil {
			log.WithError(err).WithFields(fields).WithField("milestone", id).Error("Ошибка празднования вехи")
			continue
		}
		res.Milestones = append(res.Milestones, id)
	}
	return res
}

func (s *Service) emit(ctx context.Context, res *Result, eventType celebration.EventType, c celebration.Context) {
	e, err := s.celebrations.Emit(ctx, res.Session.UserID, eventType, c)
	if e != nil {
		res.Celebrations = append(res.Celebrations, e)
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":    res.Session.UserID,
			"event_type": eventType,
		}).Error("Ошибка празднования")
	}
}

// Rate ставит оценку 1..5 последней завершённой сессии.
func (s *Service) Rate(ctx context.Context, userID int64, rating int) (*Session, error) {
	if rating < 1 || rating > 5 {
		return nil, common.ErrInvalidRating
	}
	sess, err := s.repo.LatestCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRating(ctx, sess.ID, rating); err != nil {
		return nil, err
	}
	sess.Rating = &rating
	return sess, nil
}
