// Package admin — handlers.go обрабатывает /login, /logout, /grant и /recompute.
// Все команды работают только в личных сообщениях.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик админ-команд.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleLogin: /login <пароль>
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.reply(ctx, chatID, "🔐 Использование: /login <пароль>")
		return
	}
	if err := h.service.Login(ctx, userID, args[0]); err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, "✅ Вход выполнен на 24 часа.\n\n/grant <user_id> <badge>\n/recompute <user_id>\n/logout")
}

// HandleLogout: /logout
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, "👋 Сессия завершена")
}

// HandleGrant: /grant <user_id> <badge>
func (h *Handler) HandleGrant(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 2 {
		h.reply(ctx, chatID, "❌ Использование: /grant <user_id> <badge>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "❌ user_id должен быть числом")
		return
	}

	e, err := h.service.GrantBadge(ctx, userID, target, celebration.BadgeType(args[1]))
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("✅ Пользователю %d выдано празднование #%d", target, e.ID))
}

// HandleRecompute: /recompute <user_id>
func (h *Handler) HandleRecompute(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.reply(ctx, chatID, "❌ Использование: /recompute <user_id>")
		return
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, "❌ user_id должен быть числом")
		return
	}

	snaps, err := h.service.Recompute(ctx, userID, target)
	if err != nil {
		h.replyError(ctx, chatID, userID, err)
		return
	}
	h.reply(ctx, chatID, fmt.Sprintf("♻️ Пользователь %d\n\n%s", target, streak.FormatSnapshots(snaps)))
}

func (h *Handler) replyError(ctx context.Context, chatID, userID int64, err error) {
	switch {
	case errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrWrongPassword),
		errors.Is(err, common.ErrTooManyAttempts),
		errors.Is(err, common.ErrSessionExpired),
		errors.Is(err, common.ErrUnknownBadge),
		errors.Is(err, common.ErrUserNotFound):
		h.reply(ctx, chatID, "❌ "+err.Error())
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка админ-команды")
		h.reply(ctx, chatID, "❌ Ошибка выполнения команды")
	}
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
