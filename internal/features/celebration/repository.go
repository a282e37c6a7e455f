// Package celebration — repository.go выполняет операции с таблицами
// celebration_events и achievement_unlocks.
package celebration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/wellness-bot/internal/common"
)

// Repository предоставляет методы для работы с празднованиями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий празднований.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Бейдж отдаём, только если он действительно записан в achievement_unlocks:
// празднование может пережить неудачную запись бейджа.
const eventColumns = `id, user_id, event_type, score_increment,
	CASE WHEN EXISTS (
		SELECT 1 FROM achievement_unlocks u
		WHERE u.user_id = celebration_events.user_id AND u.badge_type = celebration_events.badge_unlocked
	) THEN badge_unlocked END, message,
	COALESCE(audio_cue, ''), COALESCE(animation, ''), COALESCE(viewed, FALSE), viewed_at, delivered_at, created_at`

// InsertEvent сохраняет празднование и заполняет ID и CreatedAt.
func (r *Repository) InsertEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO celebration_events (user_id, event_type, score_increment, badge_unlocked,
		                                message, audio_cue, animation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	var badge *string
	if e.BadgeUnlocked != nil {
		b := string(*e.BadgeUnlocked)
		badge = &b
	}
	err := r.db.QueryRow(ctx, query,
		e.UserID, string(e.EventType), e.ScoreIncrement, badge,
		e.Message, e.AudioCue, e.Animation,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения празднования: %w", err)
	}
	return nil
}

// InsertUnlock сохраняет полученный бейдж.
// Повторная вставка той же пары (user_id, badge_type) ничего не делает и возвращает false.
func (r *Repository) InsertUnlock(ctx context.Context, userID int64, badge BadgeType, points int) (bool, error) {
	query := `
		INSERT INTO achievement_unlocks (user_id, badge_type, points_awarded)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_type) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, userID, string(badge), points)
	if err != nil {
		return false, fmt.Errorf("ошибка сохранения бейджа: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkViewed отмечает празднование просмотренным. Повторная отметка не ошибка.
func (r *Repository) MarkViewed(ctx context.Context, userID, eventID int64) error {
	query := `
		UPDATE celebration_events
		SET viewed = TRUE, viewed_at = COALESCE(viewed_at, NOW())
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.db.Exec(ctx, query, eventID, userID)
	if err != nil {
		return fmt.Errorf("ошибка отметки празднования: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrCelebrationNotFound
	}
	return nil
}

// MarkDelivered отмечает, что празднование отправлено в Telegram.
func (r *Repository) MarkDelivered(ctx context.Context, eventID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE celebration_events SET delivered_at = NOW() WHERE id = $1 AND delivered_at IS NULL`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("ошибка отметки доставки: %w", err)
	}
	return nil
}

// ListUnviewed возвращает непросмотренные празднования пользователя, старые первыми.
func (r *Repository) ListUnviewed(ctx context.Context, userID int64, limit int) ([]*Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM celebration_events
		WHERE user_id = $1 AND viewed = FALSE
		ORDER BY created_at, id
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения празднований: %w", err)
	}
	return scanEvents(rows)
}

// ListUndelivered возвращает празднования всех пользователей, ещё не отправленные в Telegram.
func (r *Repository) ListUndelivered(ctx context.Context, limit int) ([]*Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM celebration_events
		WHERE delivered_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения празднований для доставки: %w", err)
	}
	return scanEvents(rows)
}

// ListUnlocks возвращает бейджи пользователя в порядке получения.
func (r *Repository) ListUnlocks(ctx context.Context, userID int64) ([]*AchievementUnlock, error) {
	query := `
		SELECT id, user_id, badge_type, points_awarded, unlocked_at
		FROM achievement_unlocks
		WHERE user_id = $1
		ORDER BY unlocked_at, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения бейджей: %w", err)
	}
	defer rows.Close()

	var out []*AchievementUnlock
	for rows.Next() {
		var u AchievementUnlock
		var badge string
		if err := rows.Scan(&u.ID, &u.UserID, &badge, &u.PointsAwarded, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования бейджа: %w", err)
		}
		u.BadgeType = BadgeType(badge)
		out = append(out, &u)
	}
	return out, rows.Err()
}

func scanEvents(rows pgx.Rows) ([]*Event, error) {
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var eventType string
		var badge *string
		if err := rows.Scan(&e.ID, &e.UserID, &eventType, &e.ScoreIncrement, &badge, &e.Message,
			&e.AudioCue, &e.Animation, &e.Viewed, &e.ViewedAt, &e.DeliveredAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования празднования: %w", err)
		}
		e.EventType = EventType(eventType)
		if badge != nil {
			b := BadgeType(*badge)
			e.BadgeUnlocked = &b
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
