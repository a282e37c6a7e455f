// Package streak — repository.go читает историю завершений из sessions
// и хранит снимки стриков в streak_snapshots.
package streak

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository предоставляет методы для работы со стриками.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий стриков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FetchCompletionDates возвращает моменты всех завершённых сессий вида kind.
func (r *Repository) FetchCompletionDates(ctx context.Context, userID int64, kind ActivityKind) ([]time.Time, error) {
	query := `
		SELECT completed_at
		FROM sessions
		WHERE user_id = $1 AND kind = $2 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории (user_id=%d, kind=%s): %w", userID, kind, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("ошибка сканирования завершения: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// HasCompletionBetween проверяет, есть ли завершение в интервале [from, to).
func (r *Repository) HasCompletionBetween(ctx context.Context, userID int64, kind ActivityKind, from, to time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE user_id = $1 AND kind = $2
			  AND completed_at >= $3 AND completed_at < $4
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, string(kind), from, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки активности за день: %w", err)
	}
	return exists, nil
}

// UpsertSnapshot сохраняет снимок стрика. reminder_sent_on не трогаем.
func (r *Repository) UpsertSnapshot(ctx context.Context, userID int64, kind ActivityKind, s Snapshot) error {
	query := `
		INSERT INTO streak_snapshots (user_id, kind, current_streak, longest_streak,
		                              last_activity_date, is_active_today, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id, kind) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    last_activity_date = EXCLUDED.last_activity_date,
		    is_active_today = EXCLUDED.is_active_today,
		    updated_at = NOW()
	`
	// DATE берёт год/месяц/день из значения как есть, без перевода в UTC.
	_, err := r.db.Exec(ctx, query, userID, string(kind), s.Current, s.Longest, s.LastActivityDate, s.IsActiveToday)
	if err != nil {
		return fmt.Errorf("ошибка сохранения снимка стрика: %w", err)
	}
	return nil
}

// ListSnapshots возвращает все сохранённые снимки (для ночного пересчёта).
func (r *Repository) ListSnapshots(ctx context.Context) ([]StoredSnapshot, error) {
	query := `
		SELECT user_id, kind, current_streak, longest_streak, last_activity_date,
		       is_active_today, reminder_sent_on, updated_at
		FROM streak_snapshots
		ORDER BY user_id, kind
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения снимков: %w", err)
	}
	defer rows.Close()

	var out []StoredSnapshot
	for rows.Next() {
		var s StoredSnapshot
		var kind string
		if err := rows.Scan(&s.UserID, &kind, &s.Snapshot.Current, &s.Snapshot.Longest,
			&s.Snapshot.LastActivityDate, &s.Snapshot.IsActiveToday, &s.ReminderSentOn, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования снимка: %w", err)
		}
		s.Kind = ActivityKind(kind)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReminderCandidates возвращает стрики длиной от minCurrent у пользователей
// с включёнными напоминаниями.
func (r *Repository) ReminderCandidates(ctx context.Context, minCurrent int) ([]ReminderCandidate, error) {
	query := `
		SELECT s.user_id, s.kind, s.current_streak, m.timezone, s.reminder_sent_on
		FROM streak_snapshots s
		JOIN members m ON m.user_id = s.user_id
		WHERE s.current_streak >= $1 AND COALESCE(m.reminders_enabled, TRUE)
	`
	rows, err := r.db.Query(ctx, query, minCurrent)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кандидатов на напоминание: %w", err)
	}
	defer rows.Close()

	var out []ReminderCandidate
	for rows.Next() {
		var c ReminderCandidate
		var kind string
		if err := rows.Scan(&c.UserID, &kind, &c.Current, &c.Timezone, &c.ReminderSentOn); err != nil {
			return nil, fmt.Errorf("ошибка сканирования кандидата: %w", err)
		}
		c.Kind = ActivityKind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkReminderSent запоминает, что напоминание за день day уже отправлено.
func (r *Repository) MarkReminderSent(ctx context.Context, userID int64, kind ActivityKind, day time.Time) error {
	query := `UPDATE streak_snapshots SET reminder_sent_on = $3 WHERE user_id = $1 AND kind = $2`
	if _, err := r.db.Exec(ctx, query, userID, string(kind), day); err != nil {
		return fmt.Errorf("ошибка отметки напоминания: %w", err)
	}
	return nil
}
