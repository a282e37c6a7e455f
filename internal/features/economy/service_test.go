package economy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/wellness-bot/internal/common"
)

type memLedger struct {
	balances map[int64]*Balance
	txs      []*Transaction
}

func newMemLedger() *memLedger { return &memLedger{balances: map[int64]*Balance{}} }

func (m *memLedger) GetBalance(_ context.Context, userID int64) (*Balance, error) {
	if b, ok := m.balances[userID]; ok {
		return b, nil
	}
	return &Balance{UserID: userID}, nil
}

func (m *memLedger) Award(_ context.Context, userID int64, amount int64, txType, description string) (int64, int64, error) {
	b, ok := m.balances[userID]
	if !ok {
		b = &Balance{UserID: userID}
		m.balances[userID] = b
	}
	before := b.TotalEarned
	b.Balance += amount
	b.TotalEarned += amount
	m.txs = append([]*Transaction{{UserID: userID, Amount: amount, TransactionType: txType, Description: description, CreatedAt: time.Now()}}, m.txs...)
	return before, b.TotalEarned, nil
}

func (m *memLedger) GetTransactions(_ context.Context, userID int64, limit int) ([]*Transaction, error) {
	var out []*Transaction
	for _, tx := range m.txs {
		if tx.UserID == userID && len(out) < limit {
			out = append(out, tx)
		}
	}
	return out, nil
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0))
	assert.Equal(t, 1, LevelFor(499))
	assert.Equal(t, 2, LevelFor(500))
	assert.Equal(t, 3, LevelFor(1000))
	assert.Equal(t, 1, LevelFor(-10))
}

func TestAwardReportsLevelUp(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemLedger())

	change, err := svc.Award(ctx, 1, 450, TxTypeCelebration, "warm-up")
	require.NoError(t, err)
	assert.False(t, change.LeveledUp())
	assert.Equal(t, 1, change.After)

	change, err = svc.Award(ctx, 1, 100, TxTypeBadge, "badge")
	require.NoError(t, err)
	assert.True(t, change.LeveledUp())
	assert.Equal(t, LevelChange{Before: 1, After: 2}, change)
}

func TestAwardRejectsNonPositive(t *testing.T) {
	svc := NewService(newMemLedger())
	_, err := svc.Award(context.Background(), 1, 0, TxTypeCelebration, "nothing")
	assert.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestGetHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemLedger())

	text, err := svc.GetHistory(ctx, 1, time.UTC, 5)
	require.NoError(t, err)
	assert.Contains(t, text, "Пока нет")

	_, err = svc.Award(ctx, 1, 10, TxTypeCelebration, "Медитация")
	require.NoError(t, err)
	text, err = svc.GetHistory(ctx, 1, time.UTC, 5)
	require.NoError(t, err)
	assert.Contains(t, text, "+10 очков")
	assert.Contains(t, text, "Медитация")
}
