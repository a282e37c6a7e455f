// Package members управляет пользователями бота: регистрацией, часовым поясом
// и настройками напоминаний.
// models.go описывает структуры данных для работы с таблицей members.
package members

import "time"

// Member представляет пользователя бота в базе данных.
// Запись создаётся при первом обращении к боту.
type Member struct {
	ID               int64     `db:"id"`                // Автоинкрементный ID записи в БД
	UserID           int64     `db:"user_id"`           // Telegram user ID (уникальный)
	Username         string    `db:"username"`          // @username (может быть пустым)
	FirstName        string    `db:"first_name"`        // Имя пользователя
	LastName         string    `db:"last_name"`         // Фамилия (может быть пустой)
	Timezone         *string   `db:"timezone"`          // IANA-пояс; nil = APP_TIMEZONE
	RemindersEnabled bool      `db:"reminders_enabled"` // Присылать ли напоминания о стрике
	JoinedAt         time.Time `db:"joined_at"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Profile — данные пользователя из Telegram, которые могут меняться.
type Profile struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}
