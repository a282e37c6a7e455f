// Package sessions — handlers.go обрабатывает /meditate, /workout, /done и /rate.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Handler обрабатывает команды сессий.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт новый обработчик команд сессий.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleStart начинает сессию вида kind.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, kind streak.ActivityKind) {
	_, already, err := h.service.Start(ctx, userID, kind)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}

	text := fmt.Sprintf("%s Начали: %s. Когда закончишь — /done %s", kind.Emoji(), kind.Title(), kind)
	if already {
		text += "\n\n✅ Сегодняшний день для серии уже засчитан, эта сессия — бонус."
	}
	h.reply(ctx, chatID, text)
}

// HandleDone завершает сессию. Без аргумента — последнюю начатую.
func (h *Handler) HandleDone(ctx context.Context, chatID, userID int64, args []string) {
	var kind streak.ActivityKind
	if len(args) > 0 {
		k, err := streak.ParseKind(args[0])
		if err != nil {
			h.reply(ctx, chatID, "❌ Не знаю такую активность. Используй: /done meditation или /done workout")
			return
		}
		kind = k
	}

	res, err := h.service.Complete(ctx, userID, kind)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, FormatResult(res))
}

// FormatResult собирает ответ на /done.
func FormatResult(res *Result) string {
	sess := res.Session
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ %s завершена: %d %s\n",
		capitalize(sess.Kind.Title()), sess.Minutes(), common.PluralizeMinutes(sess.Minutes())))
	sb.WriteString(fmt.Sprintf("🔥 Серия: %d %s (рекорд %d)\n",
		res.Streak.Current, common.PluralizeDays(res.Streak.Current), res.Streak.Longest))

	points := 0
	for _, e := range res.Celebrations {
		points += e.ScoreIncrement
	}
	if points > 0 {
		sb.WriteString(fmt.Sprintf("⭐ +%s\n", common.FormatPoints(int64(points))))
	}
	if len(res.Milestones) > 0 {
		sb.WriteString("🎉 Новая веха! Подробности придут следующим сообщением.\n")
	}
	sb.WriteString("\nОцени сессию: /rate 1-5")
	return sb.String()
}

// HandleRate оценивает последнюю завершённую сессию.
func (h *Handler) HandleRate(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.reply(ctx, chatID, "❌ Использование: /rate <1-5>")
		return
	}
	rating, err := strconv.Atoi(args[0])
	if err != nil {
		h.reply(ctx, chatID, "❌ Оценка должна быть числом от 1 до 5")
		return
	}

	sess, err := h.service.Rate(ctx, userID, rating)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("🙏 Спасибо! %s оценена на %s",
		capitalize(sess.Kind.Title()), strings.Repeat("⭐", rating)))
}

func (h *Handler) replyError(ctx context.Context, chatID, userID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNoOpenSession):
		h.reply(ctx, chatID, "❌ Нет начатой сессии. Начни с /meditate или /workout")
	case errors.Is(err, common.ErrNoCompletedSession),
		errors.Is(err, common.ErrInvalidRating),
		errors.Is(err, common.ErrFeatureDisabled),
		errors.Is(err, common.ErrUnknownActivity):
		h.reply(ctx, chatID, "❌ "+capitalize(err.Error()))
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка обработки сессии")
		h.reply(ctx, chatID, "❌ Что-то пошло не так, попробуй ещё раз")
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}
