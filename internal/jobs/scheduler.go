// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночной пересчёт стриков,
// ежечасные напоминания и доставку празднований.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
)

// StreakJobs — задачи сервиса стриков.
type StreakJobs interface {
	RefreshAll(ctx context.Context) (int, error)
	SendReminders(ctx context.Context, sender common.Sender) (int, error)
}

// CelebrationJobs — задачи сервиса празднований.
type CelebrationJobs interface {
	DeliverPending(ctx context.Context, sender common.Sender, batch int) (int, error)
}

// Расписания
const (
	SpecRefreshStreaks = "5 0 * * *" // 00:05: вчерашний день уже закрыт
	SpecReminders      = "0 * * * *"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	cfg          *config.Config
	streaks      StreakJobs
	celebrations CelebrationJobs
	sender       common.Sender
}

// NewScheduler создаёт планировщик задач в часовом поясе loc.
// Задача не запускается повторно, пока не закончился предыдущий запуск.
func NewScheduler(cfg *config.Config, loc *time.Location, streaks StreakJobs, celebrations CelebrationJobs, sender common.Sender) *Scheduler {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))),
	)
	return &Scheduler{
		cron:         c,
		cfg:          cfg,
		streaks:      streaks,
		celebrations: celebrations,
		sender:       sender,
	}
}

// Start регистрирует и запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(SpecRefreshStreaks, func() { s.refreshStreaks(ctx) }); err != nil {
		return fmt.Errorf("ошибка регистрации пересчёта стриков: %w", err)
	}

	if s.cfg.FeatureRemindersEnabled {
		if _, err := s.cron.AddFunc(SpecReminders, func() { s.sendReminders(ctx) }); err != nil {
			return fmt.Errorf("ошибка регистрации напоминаний: %w", err)
		}
	}

	deliverySpec := "@every " + s.cfg.CelebrationDeliveryInterval.String()
	if _, err := s.cron.AddFunc(deliverySpec, func() { s.deliverCelebrations(ctx) }); err != nil {
		return fmt.Errorf("ошибка регистрации доставки празднований: %w", err)
	}

	s.cron.Start()
	log.WithField("jobs", len(s.cron.Entries())).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

func (s *Scheduler) refreshStreaks(ctx context.Context) {
	log.Info("[CRON] Ночной пересчёт стриков")
	if _, err := s.streaks.RefreshAll(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка пересчёта стриков")
	}
}

func (s *Scheduler) sendReminders(ctx context.Context) {
	log.Debug("[CRON] Проверка напоминаний")
	if _, err := s.streaks.SendReminders(ctx, s.sender); err != nil {
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
	}
}

func (s *Scheduler) deliverCelebrations(ctx context.Context) {
	n, err := s.celebrations.DeliverPending(ctx, s.sender, s.cfg.CelebrationDeliveryBatch)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка доставки празднований")
		return
	}
	if n > 0 {
		log.WithField("count", n).Info("[CRON] Празднования доставлены")
	}
}
