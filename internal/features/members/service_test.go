package members

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/wellness-bot/internal/common"
)

type memStore struct {
	members map[int64]*Member
}

func newMemStore() *memStore { return &memStore{members: map[int64]*Member{}} }

func (m *memStore) Upsert(_ context.Context, userID int64, p Profile) error {
	if existing, ok := m.members[userID]; ok {
		existing.Username, existing.FirstName, existing.LastName = p.Username, p.FirstName, p.LastName
		return nil
	}
	m.members[userID] = &Member{UserID: userID, Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, RemindersEnabled: true}
	return nil
}

func (m *memStore) GetByUserID(_ context.Context, userID int64) (*Member, error) {
	if mem, ok := m.members[userID]; ok {
		return mem, nil
	}
	return nil, fmt.Errorf("user_id=%d: %w", userID, common.ErrUserNotFound)
}

func (m *memStore) Exists(_ context.Context, userID int64) (bool, error) {
	_, ok := m.members[userID]
	return ok, nil
}

func (m *memStore) SetTimezone(_ context.Context, userID int64, tz string) error {
	m.members[userID].Timezone = &tz
	return nil
}

func (m *memStore) SetReminders(_ context.Context, userID int64, enabled bool) error {
	m.members[userID].RemindersEnabled = enabled
	return nil
}

func TestLocationFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	svc := NewService(newMemStore(), moscow)

	loc, err := svc.Location(ctx, 404)
	require.NoError(t, err)
	assert.Equal(t, moscow, loc)

	require.NoError(t, svc.EnsureMember(ctx, 1, Profile{FirstName: "Ann"}))
	loc, err = svc.Location(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, moscow, loc)
}

func TestSetTimezone(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := NewService(store, time.UTC)
	require.NoError(t, svc.EnsureMember(ctx, 1, Profile{FirstName: "Ann"}))

	_, err := svc.SetTimezone(ctx, 1, "Not/AZone")
	assert.ErrorIs(t, err, common.ErrInvalidTimezone)

	loc, err := svc.SetTimezone(ctx, 1, "Asia/Almaty")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Almaty", loc.String())

	got, err := svc.Location(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Almaty", got.String())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@ann", (&Member{Username: "ann", FirstName: "Ann"}).DisplayName())
	assert.Equal(t, "Ann Lee", (&Member{FirstName: "Ann", LastName: "Lee"}).DisplayName())
}

func TestIsMemberAfterFirstContact(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), time.UTC)

	ok, err := svc.IsMember(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.EnsureMember(ctx, 5, Profile{FirstName: "Ann"}))
	ok, err = svc.IsMember(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)
}
