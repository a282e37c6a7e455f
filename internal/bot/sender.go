package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// TelegramSender отправляет текстовые сообщения через Bot API.
// Реализует common.Sender для обработчиков фич и фоновых задач.
type TelegramSender struct {
	api *telego.Bot
}

// NewSender создаёт отправителя поверх клиента telego.
func NewSender(api *telego.Bot) *TelegramSender {
	return &TelegramSender{api: api}
}

// SendText отправляет сообщение в чат.
func (s *TelegramSender) SendText(ctx context.Context, chatID int64, text string) error {
	if _, err := s.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("ошибка отправки в чат %d: %w", chatID, err)
	}
	log.WithField("chat_id", chatID).Debug("message sent")
	return nil
}
