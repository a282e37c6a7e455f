// Package streak — service.go пересчитывает стрики по сохранённой истории
// и рассылает напоминания тем, у кого серия под угрозой.
package streak

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/observability"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	FetchCompletionDates(ctx context.Context, userID int64, kind ActivityKind) ([]time.Time, error)
	HasCompletionBetween(ctx context.Context, userID int64, kind ActivityKind, from, to time.Time) (bool, error)
	UpsertSnapshot(ctx context.Context, userID int64, kind ActivityKind, s Snapshot) error
	ListSnapshots(ctx context.Context) ([]StoredSnapshot, error)
	ReminderCandidates(ctx context.Context, minCurrent int) ([]ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, userID int64, kind ActivityKind, day time.Time) error
}

// LocationResolver возвращает часовой пояс пользователя.
type LocationResolver interface {
	Location(ctx context.Context, userID int64) (*time.Location, error)
}

// Service управляет стриками.
type Service struct {
	repo       Store
	locations  LocationResolver
	defaultLoc *time.Location
	cfg        *config.Config
	now        func() time.Time
}

// NewService создаёт новый сервис стриков.
func NewService(repo Store, locations LocationResolver, defaultLoc *time.Location, cfg *config.Config) *Service {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Service{
		repo:       repo,
		locations:  locations,
		defaultLoc: defaultLoc,
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithClock подменяет источник текущего времени (для тестов и пересчётов «на дату»).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// userNow возвращает текущий момент в календаре пользователя.
func (s *Service) userNow(ctx context.Context, userID int64) time.Time {
	loc, err := s.locations.Location(ctx, userID)
	if err != nil || loc == nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось определить пояс, используем по умолчанию")
		loc = s.defaultLoc
	}
	return s.now().In(loc)
}

// Current считает стрик по истории, ничего не сохраняя.
func (s *Service) Current(ctx context.Context, userID int64, kind ActivityKind) (Snapshot, error) {
	if !kind.Valid() {
		return Snapshot{}, common.ErrUnknownActivity
	}
	dates, err := s.repo.FetchCompletionDates(ctx, userID, kind)
	if err != nil {
		return Snapshot{}, err
	}
	return Compute(dates, s.userNow(ctx, userID)), nil
}

// Recompute пересчитывает стрик и сохраняет снимок.
// Ошибки хранилища возвращаются как есть, без повторов.
func (s *Service) Recompute(ctx context.Context, userID int64, kind ActivityKind) (Snapshot, error) {
	snap, err := s.Current(ctx, userID, kind)
	if err == nil {
		err = s.repo.UpsertSnapshot(ctx, userID, kind, snap)
	}
	observability.RecordStreakRecompute(string(kind), err)
	if err != nil {
		return Snapshot{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"kind":    kind,
		"current": snap.Current,
		"longest": snap.Longest,
	}).Debug("Стрик пересчитан")
	return snap, nil
}

// Snapshots возвращает актуальные стрики по всем видам активности.
func (s *Service) Snapshots(ctx context.Context, userID int64) (map[ActivityKind]Snapshot, error) {
	out := make(map[ActivityKind]Snapshot, len(Kinds))
	for _, kind := range Kinds {
		snap, err := s.Current(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = snap
	}
	return out, nil
}

// HasActivityToday проверяет, была ли сегодня (по календарю пользователя)
// завершённая сессия вида kind.
func (s *Service) HasActivityToday(ctx context.Context, userID int64, kind ActivityKind) (bool, error) {
	now := s.userNow(ctx, userID)
	from, to := common.DayBounds(now, now.Location())
	return s.repo.HasCompletionBetween(ctx, userID, kind, from, to)
}

// RefreshAll пересчитывает все сохранённые снимки.
// Запускается раз в сутки, чтобы прерванные серии обнулились без действий пользователя.
// Ошибка по одному пользователю не останавливает остальных.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	stored, err := s.repo.ListSnapshots(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, st := range stored {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.Recompute(ctx, st.UserID, st.Kind); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id": st.UserID,
				"kind":    st.Kind,
			}).Error("Ошибка пересчёта стрика")
			continue
		}
		refreshed++
	}
	log.WithField("count", refreshed).Info("Стрики пересчитаны")
	return refreshed, nil
}

// SendReminders напоминает о стрике тем, у кого серия не меньше порога,
// сегодня ещё не было активности, и у кого уже наступил час напоминания.
// Одно напоминание на вид активности в день.
func (s *Service) SendReminders(ctx context.Context, sender common.Sender) (int, error) {
	candidates, err := s.repo.ReminderCandidates(ctx, s.cfg.StreakReminderThreshold)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range candidates {
		loc := s.defaultLoc
		if c.Timezone != nil {
			loc = common.LoadLocation(*c.Timezone, s.defaultLoc)
		}
		now := s.now().In(loc)
		if now.Hour() < s.cfg.StreakReminderHour {
			continue
		}
		today := common.CalendarDay(now, loc)
		if c.ReminderSentOn != nil && common.DaysBetween(*c.ReminderSentOn, today) == 0 {
			continue
		}

		from, to := common.DayBounds(now, loc)
		active, err := s.repo.HasCompletionBetween(ctx, c.UserID, c.Kind, from, to)
		if err != nil {
			log.WithError(err).WithField("user_id", c.UserID).Error("Ошибка проверки активности")
			continue
		}
		if active {
			continue
		}

		text := fmt.Sprintf("🔥 Серия «%s» — %d %s подряд. Не прерывай её сегодня! %s",
			c.Kind.Title(), c.Current, common.PluralizeDays(c.Current), c.Kind.Emoji())
		if err := sender.SendText(ctx, c.UserID, text); err != nil {
			log.WithError(err).WithField("user_id", c.UserID).Warn("Не удалось отправить напоминание")
			continue
		}
		if err := s.repo.MarkReminderSent(ctx, c.UserID, c.Kind, today); err != nil {
			log.WithError(err).WithField("user_id", c.UserID).Error("Ошибка отметки напоминания")
		}
		sent++
	}

	if sent > 0 {
		log.WithField("count", sent).Info("Напоминания о стриках отправлены")
	}
	return sent, nil
}
