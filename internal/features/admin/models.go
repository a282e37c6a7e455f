// Package admin — ручные операции администратора поверх движка празднований.
// Доступ: ADMIN_IDS + пароль (Argon2id), сессия живёт 24 часа.
// models.go описывает сессии и попытки входа.
package admin

import "time"

// AdminSession — активная сессия администратора.
type AdminSession struct {
	ID              int64
	UserID          int64
	SessionToken    string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	LastActivity    time.Time
	IsActive        bool
}

// Ограничения входа
const (
	MaxFailedAttempts = 3              // Неудачных попыток до блокировки
	LockoutPeriod     = time.Hour      // Окно подсчёта неудачных попыток
	SessionTTL        = 24 * time.Hour // Время жизни сессии
)
