// Package economy ведёт счёт очков пользователя: каждое празднование и бейдж
// начисляют очки, из суммы заработанного вычисляется уровень.
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// PointsPerLevel — сколько заработанных очков нужно на один уровень.
const PointsPerLevel = 500

// Balance представляет счёт пользователя.
// Каждый пользователь имеет не больше одной записи в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс очков
	TotalEarned int64     `db:"total_earned"` // Сколько всего заработано (определяет уровень)
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Level возвращает уровень пользователя.
func (b *Balance) Level() int {
	return LevelFor(b.TotalEarned)
}

// Transaction представляет одно начисление очков.
type Transaction struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	Amount          int64     `db:"amount"`           // Сумма (положительная)
	TransactionType string    `db:"transaction_type"` // 'celebration', 'badge', 'admin_grant'
	Description     string    `db:"description"`      // Описание для отображения
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций
const (
	TxTypeCelebration = "celebration" // Очки за празднование
	TxTypeBadge       = "badge"       // Очки за бейдж
	TxTypeAdminGrant  = "admin_grant" // Выдача админом
)

// LevelChange описывает уровень до и после начисления.
type LevelChange struct {
	Before int
	After  int
}

// LeveledUp — начисление перевело пользователя на новый уровень.
func (c LevelChange) LeveledUp() bool {
	return c.After > c.Before
}

// LevelFor вычисляет уровень по сумме заработанных очков.
// 0..499 → 1, 500..999 → 2, и так далее.
func LevelFor(totalEarned int64) int {
	if totalEarned < 0 {
		totalEarned = 0
	}
	return 1 + int(totalEarned/PointsPerLevel)
}
