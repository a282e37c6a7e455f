// Package economy — service.go содержит бизнес-логику начисления очков.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Store — операции хранилища, нужные сервису.
type Store interface {
	GetBalance(ctx context.Context, userID int64) (*Balance, error)
	Award(ctx context.Context, userID int64, amount int64, txType, description string) (before, after int64, err error)
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// Service управляет очками и уровнями.
type Service struct {
	repo Store
}

// NewService создаёт новый сервис очков.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// GetBalance возвращает текущий счёт пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (*Balance, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Award начисляет очки и сообщает, изменился ли уровень.
func (s *Service) Award(ctx context.Context, userID int64, amount int64, txType, description string) (LevelChange, error) {
	if amount <= 0 {
		return LevelChange{}, common.ErrInvalidAmount
	}
	before, after, err := s.repo.Award(ctx, userID, amount, txType, description)
	if err != nil {
		return LevelChange{}, err
	}

	change := LevelChange{Before: LevelFor(before), After: LevelFor(after)}
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"type":    txType,
		"level":   change.After,
	}).Debug("Очки начислены")
	return change, nil
}

// GetHistory возвращает форматированную историю последних начислений.
func (s *Service) GetHistory(ctx context.Context, userID int64, loc *time.Location, limit int) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, limit)
	if err != nil {
		return "", err
	}
	if len(transactions) == 0 {
		return "📋 Пока нет начислений", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d начислений:\n", len(transactions)))
	for i, tx := range transactions {
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt, loc),
			common.FormatPointsDelta(tx.Amount),
			tx.Description,
		))
	}
	return sb.String(), nil
}
