// Package economy — handlers.go обрабатывает команду /points.
package economy

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// LocationResolver возвращает часовой пояс пользователя.
type LocationResolver interface {
	Location(ctx context.Context, userID int64) (*time.Location, error)
}

// Handler обрабатывает команды очков.
type Handler struct {
	service   *Service
	locations LocationResolver
	sender    common.Sender
}

// NewHandler создаёт новый обработчик команд очков.
func NewHandler(service *Service, locations LocationResolver, sender common.Sender) *Handler {
	return &Handler{service: service, locations: locations, sender: sender}
}

// HandlePoints показывает баланс, уровень и последние начисления.
//
// Формат ответа:
//
//	⭐ Очки: 740 очков
//	🏅 Уровень 2 (до следующего: 260)
//
//	📋 Последние 5 начислений: ...
func (h *Handler) HandlePoints(ctx context.Context, chatID, userID int64) {
	balance, err := h.service.GetBalance(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения баланса")
		h.reply(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	loc, err := h.locations.Location(ctx, userID)
	if err != nil {
		loc = time.UTC
	}
	history, err := h.service.GetHistory(ctx, userID, loc, 5)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка получения истории начислений")
		history = ""
	}

	toNext := int64(balance.Level())*PointsPerLevel - balance.TotalEarned
	text := fmt.Sprintf("⭐ Очки: %s\n🏅 Уровень %d (до следующего: %d)\n\n%s",
		common.FormatPoints(balance.Balance), balance.Level(), toNext, history)
	h.reply(ctx, chatID, text)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
