// Package common — sender.go описывает минимальный контракт отправки сообщений.
// Обработчики фич зависят от него, а не от Telegram-клиента напрямую.
package common

import "context"

// Sender отправляет текстовое сообщение в чат.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// SenderFunc позволяет использовать обычную функцию как Sender.
type SenderFunc func(ctx context.Context, chatID int64, text string) error

// SendText вызывает f.
func (f SenderFunc) SendText(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}
