// Package bot содержит транспорт Telegram: long polling, фильтры и маршрутизацию команд.
package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/bot/filters"
	"serotonyl.ru/wellness-bot/internal/bot/middleware"
	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/features/admin"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/economy"
	"serotonyl.ru/wellness-bot/internal/features/members"
	"serotonyl.ru/wellness-bot/internal/features/sessions"
	"serotonyl.ru/wellness-bot/internal/features/streak"
	"serotonyl.ru/wellness-bot/internal/observability"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *telego.Bot
	cfg    *config.Config
	sender common.Sender

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	memberHandler      *members.Handler
	sessionHandler     *sessions.Handler
	streakHandler      *streak.Handler
	celebrationHandler *celebration.Handler
	economyHandler     *economy.Handler
	adminHandler       *admin.Handler

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	sender common.Sender,
	chatFilter *filters.ChatFilter,
	memberHandler *members.Handler,
	sessionHandler *sessions.Handler,
	streakHandler *streak.Handler,
	celebrationHandler *celebration.Handler,
	economyHandler *economy.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:                api,
		cfg:                cfg,
		sender:             sender,
		chatFilter:         chatFilter,
		rateLimiter:        middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		memberHandler:      memberHandler,
		sessionHandler:     sessionHandler,
		streakHandler:      streakHandler,
		celebrationHandler: celebrationHandler,
		economyHandler:     economyHandler,
		adminHandler:       adminHandler,
		parser:             NewCommandParser(),
		inflight:           make(chan struct{}, maxInFlight),
	}
}

// Start запускает long polling и блокируется до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}
	defer b.rateLimiter.Close()

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	b.dispatch(ctx, updates, b.handleUpdate)
	return nil
}

// dispatch раздаёт апдейты обработчикам, не больше cap(inflight) одновременно.
// Возвращается только после завершения всех запущенных обработчиков:
// после выхода из Start приложение закрывает пул БД.
func (b *Bot) dispatch(ctx context.Context, updates <-chan telego.Update, handle func(context.Context, telego.Update)) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done), ждём обработчики...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			wg.Add(1)
			go func(upd telego.Update) {
				defer wg.Done()
				defer func() { <-b.inflight }()
				handle(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil || message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		b.reply(ctx, message.Chat.ID, "Не понимаю 🙂 Список команд: /help")
		return
	}
	b.routeCommand(ctx, message.Chat.ID, message.From.ID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": len(args),
	}).Debug("routing command")

	route, ok := commandAliases[cmd]
	if !ok {
		route = "unknown"
	}
	observability.RecordBotUpdate(route)

	switch route {
	case "start", "help":
		b.reply(ctx, chatID, HelpText(b.cfg.FeatureWorkoutsEnabled))

	case "meditate":
		b.sessionHandler.HandleStart(ctx, chatID, userID, streak.KindMeditation)
	case "workout":
		b.sessionHandler.HandleStart(ctx, chatID, userID, streak.KindWorkout)
	case "done":
		b.sessionHandler.HandleDone(ctx, chatID, userID, args)
	case "rate":
		b.sessionHandler.HandleRate(ctx, chatID, userID, args)

	case "streak":
		b.streakHandler.HandleStreak(ctx, chatID, userID)
	case "celebrations":
		b.celebrationHandler.HandleCelebrations(ctx, chatID, userID)
	case "badges":
		b.celebrationHandler.HandleBadges(ctx, chatID, userID)
	case "points":
		b.economyHandler.HandlePoints(ctx, chatID, userID)

	case "tz":
		b.memberHandler.HandleTimezone(ctx, chatID, userID, args)
	case "reminders":
		if !b.cfg.FeatureRemindersEnabled {
			b.reply(ctx, chatID, "🔕 Напоминания временно отключены")
			return
		}
		b.memberHandler.HandleReminders(ctx, chatID, userID, args)

	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)
	case "grant":
		b.adminHandler.HandleGrant(ctx, chatID, userID, args)
	case "recompute":
		b.adminHandler.HandleRecompute(ctx, chatID, userID, args)

	default:
		b.reply(ctx, chatID, "Неизвестная команда. Список команд: /help")
	}
}

// commandAliases сводит русские и английские названия к одному маршруту.
var commandAliases = map[string]string{
	"start":        "start",
	"help":         "help",
	"помощь":       "help",
	"meditate":     "meditate",
	"медитация":    "meditate",
	"workout":      "workout",
	"тренировка":   "workout",
	"done":         "done",
	"готово":       "done",
	"rate":         "rate",
	"оценка":       "rate",
	"streak":       "streak",
	"огонек":       "streak",
	"celebrations": "celebrations",
	"badges":       "badges",
	"бейджи":       "badges",
	"points":       "points",
	"очки":         "points",
	"tz":           "tz",
	"reminders":    "reminders",
	"login":        "login",
	"logout":       "logout",
	"grant":        "grant",
	"recompute":    "recompute",
}

// HelpText — ответ на /start и /help.
func HelpText(workouts bool) string {
	var sb strings.Builder
	sb.WriteString("🌿 Привет! Я считаю твои серии медитаций и тренировок.\n\n")
	sb.WriteString("/meditate — начать медитацию\n")
	if workouts {
		sb.WriteString("/workout — начать тренировку\n")
	}
	sb.WriteString("/done — завершить сессию\n")
	sb.WriteString("/rate 1-5 — оценить последнюю сессию\n")
	sb.WriteString("/streak — мои серии\n")
	sb.WriteString("/celebrations — новые празднования\n")
	sb.WriteString("/badges — бейджи\n")
	sb.WriteString("/points — очки и уровень\n")
	sb.WriteString("/tz Europe/Moscow — часовой пояс\n")
	sb.WriteString("/reminders on|off — напоминания о серии")
	return sb.String()
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// CommandParser разбирает команды с префиксами /, ! и .
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!", "."},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс "@имя_бота" у команды отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
