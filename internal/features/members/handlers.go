// Package members — handlers.go обрабатывает команды /tz и /reminders.
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Handler обрабатывает команды настроек пользователя.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик команд настроек.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleTimezone обрабатывает /tz [Europe/Berlin].
// Без аргумента показывает текущий пояс.
func (h *Handler) HandleTimezone(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		loc, err := h.service.Location(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения часового пояса")
			h.reply(ctx, chatID, "❌ Не удалось прочитать настройки")
			return
		}
		h.reply(ctx, chatID, fmt.Sprintf("🕰 Твой часовой пояс: %s\nСменить: /tz Europe/Berlin", loc))
		return
	}

	loc, err := h.service.SetTimezone(ctx, userID, args[0])
	if err != nil {
		if errors.Is(err, common.ErrInvalidTimezone) {
			h.reply(ctx, chatID, "❌ Не знаю такого пояса. Пример: /tz Asia/Almaty")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сохранения часового пояса")
		h.reply(ctx, chatID, "❌ Не удалось сохранить пояс")
		return
	}
	now := time.Now().In(loc)
	h.reply(ctx, chatID, fmt.Sprintf("✅ Пояс %s сохранён. Сейчас у тебя %s", loc, now.Format("15:04")))
}

// HandleReminders обрабатывает /reminders on|off.
func (h *Handler) HandleReminders(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.reply(ctx, chatID, "Использование: /reminders on или /reminders off")
		return
	}

	var enabled bool
	switch strings.ToLower(args[0]) {
	case "on", "вкл":
		enabled = true
	case "off", "выкл":
		enabled = false
	default:
		h.reply(ctx, chatID, "Использование: /reminders on или /reminders off")
		return
	}

	if err := h.service.SetReminders(ctx, userID, enabled); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сохранения напоминаний")
		h.reply(ctx, chatID, "❌ Не удалось сохранить настройку")
		return
	}
	if enabled {
		h.reply(ctx, chatID, "🔔 Напоминания включены")
	} else {
		h.reply(ctx, chatID, "🔕 Напоминания выключены")
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
