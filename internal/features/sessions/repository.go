// Package sessions — repository.go выполняет операции с таблицей sessions.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

// Repository предоставляет методы для работы с сессиями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий сессий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, user_id, kind, started_at, completed_at, COALESCE(abandoned, FALSE),
	COALESCE(duration_seconds, 0), rating`

// StartSession бросает незавершённую сессию того же вида и создаёт новую.
func (r *Repository) StartSession(ctx context.Context, s *Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE sessions SET abandoned = TRUE
		WHERE user_id = $1 AND kind = $2 AND completed_at IS NULL AND abandoned = FALSE
	`, s.UserID, string(s.Kind))
	if err != nil {
		return fmt.Errorf("ошибка закрытия старой сессии: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, user_id, kind, started_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.UserID, string(s.Kind), s.StartedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}

	return tx.Commit(ctx)
}

// GetOpen возвращает начатую и не завершённую сессию.
// Пустой kind — последняя открытая сессия любого вида.
func (r *Repository) GetOpen(ctx context.Context, userID int64, kind streak.ActivityKind) (*Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND ($2::text = '' OR kind = $2::text)
		  AND completed_at IS NULL AND abandoned = FALSE
		ORDER BY started_at DESC
		LIMIT 1
	`
	s, err := scanSession(r.db.QueryRow(ctx, query, userID, string(kind)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNoOpenSession
	}
	return s, err
}

// CompleteSession закрывает сессию.
func (r *Repository) CompleteSession(ctx context.Context, id uuid.UUID, completedAt time.Time, durationSeconds int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET completed_at = $2, duration_seconds = $3
		WHERE id = $1 AND completed_at IS NULL
	`, id, completedAt, durationSeconds)
	if err != nil {
		return fmt.Errorf("ошибка завершения сессии: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNoOpenSession
	}
	return nil
}

// CountCompleted возвращает число завершённых сессий вида kind.
func (r *Repository) CountCompleted(ctx context.Context, userID int64, kind streak.ActivityKind) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM sessions
		WHERE user_id = $1 AND kind = $2 AND completed_at IS NOT NULL
	`, userID, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сессий: %w", err)
	}
	return n, nil
}

// LatestCompleted возвращает последнюю завершённую сессию пользователя.
func (r *Repository) LatestCompleted(ctx context.Context, userID int64) (*Session, error) {
	query := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`
	s, err := scanSession(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNoCompletedSession
	}
	return s, err
}

// SetRating сохраняет оценку сессии.
func (r *Repository) SetRating(ctx context.Context, id uuid.UUID, rating int) error {
	if _, err := r.db.Exec(ctx, `UPDATE sessions SET rating = $2 WHERE id = $1`, id, rating); err != nil {
		return fmt.Errorf("ошибка сохранения оценки: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	var kind string
	var rating *int16
	err := row.Scan(&s.ID, &s.UserID, &kind, &s.StartedAt, &s.CompletedAt,
		&s.Abandoned, &s.DurationSeconds, &rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	s.Kind = streak.ActivityKind(kind)
	if rating != nil {
		v := int(*rating)
		s.Rating = &v
	}
	return &s, nil
}
