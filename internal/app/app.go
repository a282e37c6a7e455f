// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/wellness-bot/internal/api"
	"serotonyl.ru/wellness-bot/internal/bot"
	"serotonyl.ru/wellness-bot/internal/bot/filters"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/db/postgres"
	"serotonyl.ru/wellness-bot/internal/features/admin"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/economy"
	"serotonyl.ru/wellness-bot/internal/features/members"
	"serotonyl.ru/wellness-bot/internal/features/sessions"
	"serotonyl.ru/wellness-bot/internal/features/streak"
	"serotonyl.ru/wellness-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	HTTP      *api.Server // nil, если FEATURE_HTTP_ENABLED=false
	DB        *pgxpool.Pool

	cfg       *config.Config
	publisher celebration.Publisher
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("часовой пояс: %w", err)
	}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken,
		telego.WithLogger(log.WithField("component", "telego")))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	sender := bot.NewSender(botAPI)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	streakRepo := streak.NewRepository(pool)
	celebrationRepo := celebration.NewRepository(pool)
	sessionRepo := sessions.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	var publisher celebration.Publisher = celebration.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = celebration.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaCelebrationTopic)
		log.WithField("topic", cfg.KafkaCelebrationTopic).Info("Празднования публикуются в Kafka")
	}

	memberService := members.NewService(memberRepo, loc)
	economyService := economy.NewService(economyRepo)
	streakService := streak.NewService(streakRepo, memberService, loc, cfg)
	celebrationService := celebration.NewService(celebrationRepo, streakService, economyService, publisher)
	sessionService := sessions.NewService(sessionRepo, streakService, celebrationService, cfg)
	adminService := admin.NewService(adminRepo, cfg, memberService, streakService, celebrationService)

	// === 5. Обработчики ===
	memberHandler := members.NewHandler(memberService, sender)
	economyHandler := economy.NewHandler(economyService, memberService, sender)
	streakHandler := streak.NewHandler(streakService, sender)
	celebrationHandler := celebration.NewHandler(celebrationService, sender)
	sessionHandler := sessions.NewHandler(sessionService, sender)
	adminHandler := admin.NewHandler(adminService, sender)

	// === 6. Фильтры ===
	chatFilter := filters.NewChatFilter(memberService)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg, sender, chatFilter,
		memberHandler,
		sessionHandler,
		streakHandler,
		celebrationHandler,
		economyHandler,
		adminHandler,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, loc, streakService, celebrationService, sender)

	a := &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		cfg:       cfg,
		publisher: publisher,
	}

	// === 9. HTTP API ===
	if cfg.FeatureHTTPEnabled {
		a.HTTP = api.NewServer(pool, streakService, celebrationService, cfg.APIToken)
	}

	return a, nil
}

// Run запускает бота, планировщик и HTTP API и блокируется до отмены ctx
// или первой фатальной ошибки одного из них.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("планировщик: %w", err)
	}
	defer a.Scheduler.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Bot.Start(ctx)
	})
	if a.HTTP != nil {
		g.Go(func() error {
			return a.HTTP.ListenAndServe(ctx, a.cfg.HTTPAddr)
		})
	}
	return g.Wait()
}

// Close освобождает ресурсы: продюсер Kafka и пул БД.
func (a *App) Close() {
	if err := a.publisher.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия publisher")
	}
	a.DB.Close()
}
