// Package filters решает, какие апдейты бот обрабатывает.
package filters

import (
	"context"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/features/members"
)

const chatTypePrivate = "private"

// MemberRegistrar регистрирует пользователя при первом обращении.
type MemberRegistrar interface {
	EnsureMember(ctx context.Context, userID int64, p members.Profile) error
}

// ChatFilter пропускает только личные сообщения от людей
// и регистрирует отправителя в members.
type ChatFilter struct {
	members MemberRegistrar
}

func NewChatFilter(members MemberRegistrar) *ChatFilter {
	return &ChatFilter{members: members}
}

// CheckAccess возвращает true, если сообщение надо обработать.
func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil || message.From.IsBot {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: no human sender")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if message.Chat.Type != chatTypePrivate {
		logger.Debug("deny: not a private chat")
		return false
	}

	// Без записи в members не сохранится ни сессия, ни празднование (FK).
	if err := f.members.EnsureMember(ctx, message.From.ID, members.Profile{
		Username:  message.From.Username,
		FirstName: message.From.FirstName,
		LastName:  message.From.LastName,
	}); err != nil {
		logger.WithError(err).Error("deny: member registration failed")
		return false
	}
	return true
}
