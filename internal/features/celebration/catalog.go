// Package celebration — catalog.go: справочники событий, бейджей и вех.
// Новые вехи и бейджи добавляются сюда как данные, код сервиса не меняется.
package celebration

import (
	"fmt"

	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// EventType — тип празднования.
type EventType string

const (
	EventMeditationComplete EventType = "meditation_complete"
	EventWorkoutComplete    EventType = "workout_complete"
	EventStreakMilestone    EventType = "streak_milestone"
	EventBadgeUnlock        EventType = "badge_unlock"
	EventLevelUp            EventType = "level_up"
)

// Treatment — как празднуется событие: звук, анимация, очки и текст.
type Treatment struct {
	AudioCue  string
	Animation string
	Points    int
	Emoji     string
	Template  string
}

// Treatments — оформление для каждого типа события.
// В шаблонах доступны {streak}, {kind}, {badge}, {level} и {minutes}.
var Treatments = map[EventType]Treatment{
	EventMeditationComplete: {
		AudioCue: "chime_soft", Animation: "ripple", Points: 10, Emoji: "🧘",
		Template: "Медитация завершена: {minutes} мин. Серия: {streak}.",
	},
	EventWorkoutComplete: {
		AudioCue: "whistle", Animation: "confetti_small", Points: 10, Emoji: "💪",
		Template: "Тренировка завершена: {minutes} мин. Серия: {streak}.",
	},
	EventStreakMilestone: {
		AudioCue: "fanfare", Animation: "fire_burst", Points: 50, Emoji: "🔥",
		Template: "{streak} дней подряд: {kind}! Так держать.",
	},
	EventBadgeUnlock: {
		AudioCue: "achievement_bell", Animation: "badge_spin", Points: 100, Emoji: "🏅",
		Template: "Новый бейдж: {badge}!",
	},
	EventLevelUp: {
		AudioCue: "level_up_horn", Animation: "starfall", Points: 200, Emoji: "⭐",
		Template: "Уровень {level}! Новая ступень пройдена.",
	},
}

// CompletionEvent возвращает тип события завершения сессии.
func CompletionEvent(kind streak.ActivityKind) EventType {
	if kind == streak.KindWorkout {
		return EventWorkoutComplete
	}
	return EventMeditationComplete
}

// BadgeType — идентификатор бейджа.
type BadgeType string

// Badge — описание бейджа из каталога.
type Badge struct {
	Name        string
	Description string
	Points      int
}

// Badges — все бейджи, которые можно получить.
var Badges = map[BadgeType]Badge{
	"first_meditation": {"Первый вдох", "Первая завершённая медитация", 25},
	"first_workout":    {"Первый шаг", "Первая завершённая тренировка", 25},
	"zen_week":         {"Неделя дзена", "7 дней медитаций подряд", 50},
	"zen_fortnight":    {"Две недели тишины", "14 дней медитаций подряд", 100},
	"zen_month":        {"Месяц осознанности", "30 дней медитаций подряд", 150},
	"zen_centurion":    {"Центурион дзена", "100 дней медитаций подряд", 500},
	"zen_year":         {"Год осознанности", "365 дней медитаций подряд", 2000},
	"iron_week":        {"Железная неделя", "7 дней тренировок подряд", 50},
	"iron_fortnight":   {"Две железные недели", "14 дней тренировок подряд", 100},
	"iron_month":       {"Железный месяц", "30 дней тренировок подряд", 150},
	"iron_centurion":   {"Железный центурион", "100 дней тренировок подряд", 500},
	"iron_year":        {"Железный год", "365 дней тренировок подряд", 2000},
}

// BadgeOrder — порядок отображения бейджей в /badges.
var BadgeOrder = []BadgeType{
	"first_meditation", "zen_week", "zen_fortnight", "zen_month", "zen_centurion", "zen_year",
	"first_workout", "iron_week", "iron_fortnight", "iron_month", "iron_centurion", "iron_year",
}

// FirstBadge — бейдж за первую сессию вида kind.
func FirstBadge(kind streak.ActivityKind) BadgeType {
	return BadgeType("first_" + string(kind))
}

// Milestones — длины серий, которые празднуются. Учитывается только точное совпадение.
var Milestones = []int{3, 7, 14, 30, 60, 100, 200, 365}

// milestoneBadges — вехи, за которые полагается бейдж.
// Остальные вехи празднуются без бейджа.
var milestoneBadges = map[string]BadgeType{
	"meditation_streak_7":   "zen_week",
	"meditation_streak_14":  "zen_fortnight",
	"meditation_streak_30":  "zen_month",
	"meditation_streak_100": "zen_centurion",
	"meditation_streak_365": "zen_year",
	"workout_streak_7":      "iron_week",
	"workout_streak_14":     "iron_fortnight",
	"workout_streak_30":     "iron_month",
	"workout_streak_100":    "iron_centurion",
	"workout_streak_365":    "iron_year",
}

// IsMilestone сообщает, является ли длина серии вехой.
func IsMilestone(current int) bool {
	for _, m := range Milestones {
		if m == current {
			return true
		}
	}
	return false
}

// MilestoneID формирует идентификатор вехи, например "meditation_streak_7".
func MilestoneID(kind streak.ActivityKind, n int) string {
	return fmt.Sprintf("%s_streak_%d", kind, n)
}

// ParseMilestoneID разбирает идентификатор вехи обратно.
func ParseMilestoneID(id string) (streak.ActivityKind, int, bool) {
	for _, kind := range streak.Kinds {
		var n int
		if _, err := fmt.Sscanf(id, string(kind)+"_streak_%d", &n); err == nil && IsMilestone(n) {
			return kind, n, true
		}
	}
	return "", 0, false
}

// MilestoneBadge возвращает бейдж, положенный за веху, если он есть.
func MilestoneBadge(id string) (BadgeType, bool) {
	b, ok := milestoneBadges[id]
	return b, ok
}
