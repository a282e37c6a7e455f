// Package celebration — service.go: проверка вех и выпуск празднований.
package celebration

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/features/economy"
	"serotonyl.ru/wellness-bot/internal/features/streak"
	"serotonyl.ru/wellness-bot/internal/observability"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	InsertEvent(ctx context.Context, e *Event) error
	InsertUnlock(ctx context.Context, userID int64, badge BadgeType, points int) (bool, error)
	MarkViewed(ctx context.Context, userID, eventID int64) error
	MarkDelivered(ctx context.Context, eventID int64) error
	ListUnviewed(ctx context.Context, userID int64, limit int) ([]*Event, error)
	ListUndelivered(ctx context.Context, limit int) ([]*Event, error)
	ListUnlocks(ctx context.Context, userID int64) ([]*AchievementUnlock, error)
}

// StreakSource считает текущий стрик пользователя.
type StreakSource interface {
	Current(ctx context.Context, userID int64, kind streak.ActivityKind) (streak.Snapshot, error)
}

// Ledger начисляет очки.
type Ledger interface {
	Award(ctx context.Context, userID int64, amount int64, txType, description string) (economy.LevelChange, error)
}

// Service выпускает празднования.
type Service struct {
	repo      Store
	streaks   StreakSource
	ledger    Ledger
	publisher Publisher
}

// NewService создаёт новый сервис празднований.
// publisher может быть nil — тогда события никуда не публикуются.
func NewService(repo Store, streaks StreakSource, ledger Ledger, publisher Publisher) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{repo: repo, streaks: streaks, ledger: ledger, publisher: publisher}
}

// CheckMilestones возвращает идентификаторы вех ("meditation_streak_7"),
// на которые сейчас приходится текущий стрик. Порядок не важен.
func (s *Service) CheckMilestones(ctx context.Context, userID int64) ([]string, error) {
	var hits []string
	for _, kind := range streak.Kinds {
		snap, err := s.streaks.Current(ctx, userID, kind)
		if err != nil {
			return nil, fmt.Errorf("ошибка проверки вех (kind=%s): %w", kind, err)
		}
		if IsMilestone(snap.Current) {
			hits = append(hits, MilestoneID(kind, snap.Current))
		}
	}
	return hits, nil
}

// Emit сохраняет празднование и, если в контексте указан бейдж, запись о нём.
//
// Порядок:
//  1. Празднование (запись 1)
//  2. Бейдж (запись 2). Повторный бейдж пропускается без ошибки.
//  3. Очки: за празднование и, если бейдж новый, за бейдж
//  4. Публикация в Kafka (best effort)
//  5. Празднование level_up, если начисление перевело на новый уровень
//
// Если запись 2 не удалась, запись 1 не откатывается: празднование остаётся
// и приносит свои очки, но без бейджа. Ошибка возвращается вместе с ним.
func (s *Service) Emit(ctx context.Context, userID int64, eventType EventType, c Context) (*Event, error) {
	treatment, ok := Treatments[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownEventType, eventType)
	}
	var badge *Badge
	if c.BadgeUnlocked != "" {
		b, ok := Badges[c.BadgeUnlocked]
		if !ok {
			return nil, fmt.Errorf("%w: %s", common.ErrUnknownBadge, c.BadgeUnlocked)
		}
		badge = &b
	}

	e := &Event{
		UserID:         userID,
		EventType:      eventType,
		ScoreIncrement: treatment.Points,
		Message:        Render(treatment.Template, c),
		AudioCue:       treatment.AudioCue,
		Animation:      treatment.Animation,
	}
	if badge != nil {
		bt := c.BadgeUnlocked
		e.BadgeUnlocked = &bt
	}

	if err := s.repo.InsertEvent(ctx, e); err != nil {
		return nil, err
	}
	observability.RecordCelebration(string(eventType))

	fields := log.Fields{"user_id": userID, "event_type": eventType, "event_id": e.ID}
	points := int64(treatment.Points)
	var unlockErr error
	if badge != nil {
		fresh, err := s.repo.InsertUnlock(ctx, userID, c.BadgeUnlocked, badge.Points)
		if err != nil {
			// Празднование уже сохранено: очки за него начисляем, бейдж не показываем.
			log.WithError(err).WithFields(fields).Error("Празднование сохранено, бейдж нет")
			unlockErr = err
			e.BadgeUnlocked = nil
		} else if fresh {
			observability.RecordAchievement(string(c.BadgeUnlocked))
			points += int64(badge.Points)
			fields["badge"] = c.BadgeUnlocked
		}
	}

	change, err := s.ledger.Award(ctx, userID, points, economy.TxTypeCelebration, e.Message)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("Ошибка начисления очков за празднование")
	}

	if err := s.publisher.Publish(ctx, e); err != nil {
		observability.RecordPublishFailure()
		log.WithError(err).WithFields(fields).Warn("Празднование не опубликовано")
	}

	log.WithFields(fields).Info("Празднование выпущено")

	if eventType != EventLevelUp && change.LeveledUp() {
		if _, err := s.Emit(ctx, userID, EventLevelUp, Context{Level: change.After}); err != nil {
			log.WithError(err).WithFields(fields).Error("Ошибка празднования нового уровня")
		}
	}
	return e, unlockErr
}

// TriggerMilestone празднует веху. Если за веху положен бейдж,
// он открывается этим же празднованием.
func (s *Service) TriggerMilestone(ctx context.Context, userID int64, id string) (*Event, error) {
	kind, n, ok := ParseMilestoneID(id)
	if !ok {
		return nil, fmt.Errorf("некорректная веха %q", id)
	}
	c := Context{Streak: n, Kind: kind}
	if badge, ok := MilestoneBadge(id); ok {
		c.BadgeUnlocked = badge
	}
	return s.Emit(ctx, userID, EventStreakMilestone, c)
}

// MarkViewed переводит празднование в «просмотрено». Повторный вызов не ошибка.
func (s *Service) MarkViewed(ctx context.Context, userID, eventID int64) error {
	return s.repo.MarkViewed(ctx, userID, eventID)
}

// Unviewed возвращает непросмотренные празднования, старые первыми.
func (s *Service) Unviewed(ctx context.Context, userID int64, limit int) ([]*Event, error) {
	return s.repo.ListUnviewed(ctx, userID, limit)
}

// Achievements возвращает полученные бейджи пользователя.
func (s *Service) Achievements(ctx context.Context, userID int64) ([]*AchievementUnlock, error) {
	return s.repo.ListUnlocks(ctx, userID)
}

// DeliverPending отправляет в Telegram ещё не доставленные празднования.
// Неудачная отправка остаётся в очереди до следующего запуска.
func (s *Service) DeliverPending(ctx context.Context, sender common.Sender, batch int) (int, error) {
	pending, err := s.repo.ListUndelivered(ctx, batch)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return delivered, ctx.Err()
		}
		if err := sender.SendText(ctx, e.UserID, e.Format()); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":  e.UserID,
				"event_id": e.ID,
			}).Warn("Не удалось доставить празднование")
			continue
		}
		if err := s.repo.MarkDelivered(ctx, e.ID); err != nil {
			log.WithError(err).WithField("event_id", e.ID).Error("Ошибка отметки доставки")
			continue
		}
		delivered++
	}
	return delivered, nil
}
