// Package observability описывает метрики Prometheus, которые отдаёт /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	streakRecomputations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_bot",
		Subsystem: "streak",
		Name:      "recomputations_total",
		Help:      "Streak recomputations by activity kind and outcome.",
	}, []string{"kind", "outcome"})

	celebrationsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_bot",
		Subsystem: "celebration",
		Name:      "emitted_total",
		Help:      "Celebration events persisted, by event type.",
	}, []string{"event_type"})

	achievementsUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_bot",
		Subsystem: "celebration",
		Name:      "achievements_unlocked_total",
		Help:      "Badges unlocked for the first time, by badge type.",
	}, []string{"badge_type"})

	publishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wellness_bot",
		Subsystem: "celebration",
		Name:      "publish_failures_total",
		Help:      "Celebration events that could not be published to Kafka.",
	})

	botUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wellness_bot",
		Subsystem: "bot",
		Name:      "updates_total",
		Help:      "Telegram updates handled, by routed command.",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		streakRecomputations,
		celebrationsEmitted,
		achievementsUnlocked,
		publishFailures,
		botUpdates,
	)
}

// RecordStreakRecompute учитывает пересчёт стрика.
func RecordStreakRecompute(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	streakRecomputations.WithLabelValues(kind, outcome).Inc()
}

// RecordCelebration учитывает сохранённое празднование.
func RecordCelebration(eventType string) {
	celebrationsEmitted.WithLabelValues(eventType).Inc()
}

// RecordAchievement учитывает впервые полученный бейдж.
func RecordAchievement(badgeType string) {
	achievementsUnlocked.WithLabelValues(badgeType).Inc()
}

// RecordPublishFailure учитывает неудачную публикацию в Kafka.
func RecordPublishFailure() {
	publishFailures.Inc()
}

// RecordBotUpdate учитывает обработанный апдейт.
func RecordBotUpdate(command string) {
	if command == "" {
		command = "none"
	}
	botUpdates.WithLabelValues(command).Inc()
}
