// Package streak считает серии (стрики) по медитациям и тренировкам.
// models.go описывает виды активности и снимок стрика.
package streak

import (
	"strings"
	"time"

	"serotonyl.ru/wellness-bot/internal/common"
)

// ActivityKind — вид активности, по которому ведётся отдельный стрик.
type ActivityKind string

const (
	KindMeditation ActivityKind = "meditation"
	KindWorkout    ActivityKind = "workout"
)

// Kinds — все виды активности в порядке отображения.
var Kinds = []ActivityKind{KindMeditation, KindWorkout}

// kindAliases — как пользователь может назвать активность в команде.
var kindAliases = map[string]ActivityKind{
	"meditation": KindMeditation,
	"meditate":   KindMeditation,
	"медитация":  KindMeditation,
	"м":          KindMeditation,
	"workout":    KindWorkout,
	"тренировка": KindWorkout,
	"т":          KindWorkout,
}

// ParseKind разбирает вид активности из аргумента команды.
func ParseKind(s string) (ActivityKind, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", common.ErrUnknownActivity
	}
	return kind, nil
}

// Valid сообщает, известен ли вид активности.
func (k ActivityKind) Valid() bool {
	return k == KindMeditation || k == KindWorkout
}

// Title — название вида активности для сообщений.
func (k ActivityKind) Title() string {
	switch k {
	case KindMeditation:
		return "медитация"
	case KindWorkout:
		return "тренировка"
	}
	return string(k)
}

// Emoji — значок вида активности.
func (k ActivityKind) Emoji() string {
	if k == KindWorkout {
		return "💪"
	}
	return "🧘"
}

// Completion — одна завершённая сессия. Стрик считается только по таким записям.
type Completion struct {
	UserID      int64
	Kind        ActivityKind
	CompletedAt time.Time
}

// Snapshot — состояние стрика на конкретный «сегодня».
type Snapshot struct {
	Current          int        `json:"current_streak"`
	Longest          int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	IsActiveToday    bool       `json:"is_active_today"`
}

// StoredSnapshot — запись таблицы streak_snapshots.
type StoredSnapshot struct {
	UserID         int64
	Kind           ActivityKind
	Snapshot       Snapshot
	ReminderSentOn *time.Time
	UpdatedAt      time.Time
}

// ReminderCandidate — пользователь, которому может понадобиться напоминание.
type ReminderCandidate struct {
	UserID         int64
	Kind           ActivityKind
	Current        int
	Timezone       *string
	ReminderSentOn *time.Time
}
