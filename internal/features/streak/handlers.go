// Package streak — handlers.go обрабатывает команду /streak.
// Показывает текущую серию и рекорд по каждому виду активности.
package streak

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Handler обрабатывает команды стриков.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик стрик-команд.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleStreak показывает стрики пользователя.
//
// Формат ответа:
//
//	🔥 Твои серии
//
//	🧘 Медитация: 8 дней (рекорд 12) ✅ сегодня есть
//	💪 Тренировка: 0 дней (рекорд 3)
func (h *Handler) HandleStreak(ctx context.Context, chatID, userID int64) {
	snaps, err := h.service.Snapshots(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения стриков")
		h.reply(ctx, chatID, "❌ Ошибка получения данных стрика")
		return
	}
	h.reply(ctx, chatID, FormatSnapshots(snaps))
}

// FormatSnapshots собирает текст ответа /streak.
func FormatSnapshots(snaps map[ActivityKind]Snapshot) string {
	var sb strings.Builder
	sb.WriteString("🔥 Твои серии\n\n")
	for _, kind := range Kinds {
		snap := snaps[kind]
		title := []rune(kind.Title())
		sb.WriteString(fmt.Sprintf("%s %s: %d %s (рекорд %d)",
			kind.Emoji(),
			strings.ToUpper(string(title[:1]))+string(title[1:]),
			snap.Current, common.PluralizeDays(snap.Current),
			snap.Longest,
		))
		switch {
		case snap.IsActiveToday:
			sb.WriteString(" ✅ сегодня есть")
		case snap.Current > 0:
			sb.WriteString(" ⏳ продли сегодня")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
