// Package celebration — handlers.go обрабатывает команды /celebrations и /badges.
package celebration

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Handler обрабатывает команды празднований.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик команд празднований.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleCelebrations показывает непросмотренные празднования и отмечает их просмотренными.
func (h *Handler) HandleCelebrations(ctx context.Context, chatID, userID int64) {
	events, err := h.service.Unviewed(ctx, userID, 10)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения празднований")
		h.reply(ctx, chatID, "❌ Ошибка получения празднований")
		return
	}
	if len(events) == 0 {
		h.reply(ctx, chatID, "🎉 Новых празднований нет. Заверши сессию — и они появятся!")
		return
	}

	var sb strings.Builder
	sb.WriteString("🎉 Новые празднования:\n\n")
	for _, e := range events {
		sb.WriteString(e.Format())
		sb.WriteString("\n\n")
		if err := h.service.MarkViewed(ctx, userID, e.ID); err != nil {
			log.WithError(err).WithField("event_id", e.ID).Warn("Ошибка отметки просмотра")
		}
	}
	h.reply(ctx, chatID, strings.TrimSpace(sb.String()))
}

// HandleBadges показывает все бейджи: полученные и ещё закрытые.
func (h *Handler) HandleBadges(ctx context.Context, chatID, userID int64) {
	unlocks, err := h.service.Achievements(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения бейджей")
		h.reply(ctx, chatID, "❌ Ошибка получения бейджей")
		return
	}
	h.reply(ctx, chatID, FormatBadges(unlocks))
}

// FormatBadges собирает текст ответа /badges.
func FormatBadges(unlocks []*AchievementUnlock) string {
	have := make(map[BadgeType]bool, len(unlocks))
	for _, u := range unlocks {
		have[u.BadgeType] = true
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏅 Бейджи: %d из %d\n\n", len(have), len(Badges)))
	for _, bt := range BadgeOrder {
		b := Badges[bt]
		mark := "🔒"
		if have[bt] {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s (+%d)\n", mark, b.Name, b.Description, b.Points))
	}
	return sb.String()
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
