// Package celebration превращает завершённые сессии и достигнутые вехи
// в празднования: сообщение, звук, анимацию, очки и бейджи.
// models.go описывает празднование и полученный бейдж.
package celebration

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Event — запись таблицы celebration_events.
type Event struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	EventType      EventType  `json:"event_type"`
	ScoreIncrement int        `json:"score_increment"`
	BadgeUnlocked  *BadgeType `json:"badge_unlocked,omitempty"`
	Message        string     `json:"message"`
	AudioCue       string     `json:"audio_cue"`
	Animation      string     `json:"animation"`
	Viewed         bool       `json:"viewed"`
	ViewedAt       *time.Time `json:"viewed_at,omitempty"`
	DeliveredAt    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AchievementUnlock — запись таблицы achievement_unlocks.
// На пару (user_id, badge_type) существует не больше одной записи.
type AchievementUnlock struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	BadgeType     BadgeType `json:"badge_type"`
	PointsAwarded int       `json:"points_awarded"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// Context — данные для текста празднования и бейдж, который оно открывает.
type Context struct {
	Streak        int
	Kind          streak.ActivityKind
	BadgeUnlocked BadgeType
	Level         int
	Minutes       int
}

// Render подставляет значения контекста в шаблон.
// Незаполненные поля подставляются как есть: 0 или пустая строка.
func Render(template string, c Context) string {
	badge := string(c.BadgeUnlocked)
	if b, ok := Badges[c.BadgeUnlocked]; ok {
		badge = b.Name
	}
	return strings.NewReplacer(
		"{streak}", strconv.Itoa(c.Streak),
		"{kind}", c.Kind.Title(),
		"{badge}", badge,
		"{level}", strconv.Itoa(c.Level),
		"{minutes}", strconv.Itoa(c.Minutes),
	).Replace(template)
}

// Format собирает текст празднования для Telegram.
func (e *Event) Format() string {
	emoji := "🎉"
	if t, ok := Treatments[e.EventType]; ok {
		emoji = t.Emoji
	}
	text := fmt.Sprintf("%s %s\n+%d ⭐", emoji, e.Message, e.ScoreIncrement)
	if e.BadgeUnlocked != nil && e.EventType != EventBadgeUnlock {
		if b, ok := Badges[*e.BadgeUnlocked]; ok {
			text += fmt.Sprintf("\n🏅 Бейдж: %s", b.Name)
		}
	}
	return text
}
