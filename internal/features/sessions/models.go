// Package sessions ведёт сессии медитаций и тренировок.
// Завершённая сессия — единственный источник истории для стриков.
package sessions

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Session — запись таблицы sessions.
type Session struct {
	ID              uuid.UUID           `json:"id"`
	UserID          int64               `json:"user_id"`
	Kind            streak.ActivityKind `json:"kind"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	Abandoned       bool                `json:"abandoned"`
	DurationSeconds int                 `json:"duration_seconds"`
	Rating          *int                `json:"rating,omitempty"`
}

// Minutes — длительность в полных минутах, не меньше 1 для завершённой сессии.
func (s *Session) Minutes() int {
	if s.CompletedAt == nil {
		return 0
	}
	if m := s.DurationSeconds / 60; m > 0 {
		return m
	}
	return 1
}

// MaxDuration — сессия дольше этого считается забытой и обрезается.
const MaxDuration = 4 * time.Hour
