package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

type attempt struct {
	userID  int64
	at      time.Time
	success bool
}

type memStore struct {
	now      func() time.Time
	sessions map[int64]*AdminSession
	attempts []attempt
}

func (m *memStore) CreateSession(_ context.Context, s *AdminSession) error {
	cp := *s
	cp.IsActive = true
	m.sessions[s.UserID] = &cp
	return nil
}

func (m *memStore) GetActiveSession(_ context.Context, userID int64) (*AdminSession, error) {
	s, ok := m.sessions[userID]
	if !ok || !s.IsActive || !s.ExpiresAt.After(m.now()) {
		return nil, common.ErrSessionExpired
	}
	return s, nil
}

func (m *memStore) DeactivateSessions(_ context.Context, userID int64) error {
	if s, ok := m.sessions[userID]; ok {
		s.IsActive = false
	}
	return nil
}

func (m *memStore) TouchSession(context.Context, int64) error { return nil }

func (m *memStore) LogAttempt(_ context.Context, userID int64, success bool) error {
	m.attempts = append(m.attempts, attempt{userID, m.now(), success})
	return nil
}

func (m *memStore) CountFailedAttempts(_ context.Context, userID int64, since time.Time) (int, error) {
	n := 0
	for _, a := range m.attempts {
		if a.userID == userID && !a.success && !a.at.Before(since) {
			n++
		}
	}
	return n, nil
}

type recorder struct {
	members    map[int64]bool
	badges     []celebration.BadgeType
	recomputed []streak.ActivityKind
}

func (r *recorder) IsMember(_ context.Context, userID int64) (bool, error) {
	return r.members[userID], nil
}

func (r *recorder) Emit(_ context.Context, userID int64, _ celebration.EventType, c celebration.Context) (*celebration.Event, error) {
	r.badges = append(r.badges, c.BadgeUnlocked)
	return &celebration.Event{ID: int64(len(r.badges)), UserID: userID}, nil
}

func (r *recorder) Recompute(_ context.Context, _ int64, kind streak.ActivityKind) (streak.Snapshot, error) {
	r.recomputed = append(r.recomputed, kind)
	return streak.Snapshot{Current: 2, Longest: 5}, nil
}

const adminID = 42

func newTestService(t *testing.T) (*Service, *recorder, *time.Time) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{now: func() time.Time { return now }, sessions: map[int64]*AdminSession{}}
	rec := &recorder{members: map[int64]bool{1: true}}
	cfg := &config.Config{AdminIDs: []int64{adminID}, AdminPasswordHash: hash}

	svc := NewService(store, cfg, rec, rec, rec)
	svc.now = func() time.Time { return now }
	return svc, rec, &now
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=3,p=2$")
	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("battery staple", hash))
	assert.False(t, VerifyPassword("correct horse", "not-a-hash"))
}

func TestLoginRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	assert.ErrorIs(t, svc.Login(context.Background(), 7, "s3cret"), common.ErrNotAdmin)
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	svc, _, now := newTestService(t)

	for i := 0; i < MaxFailedAttempts; i++ {
		assert.ErrorIs(t, svc.Login(ctx, adminID, "wrong"), common.ErrWrongPassword)
	}
	assert.ErrorIs(t, svc.Login(ctx, adminID, "s3cret"), common.ErrTooManyAttempts)

	*now = now.Add(LockoutPeriod + time.Minute)
	assert.NoError(t, svc.Login(ctx, adminID, "s3cret"))
}

func TestGrantBadgeNeedsSession(t *testing.T) {
	ctx := context.Background()
	svc, rec, now := newTestService(t)

	_, err := svc.GrantBadge(ctx, adminID, 1, "zen_week")
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	require.NoError(t, svc.Login(ctx, adminID, "s3cret"))
	e, err := svc.GrantBadge(ctx, adminID, 1, "zen_week")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.UserID)
	assert.Equal(t, []celebration.BadgeType{"zen_week"}, rec.badges)

	_, err = svc.GrantBadge(ctx, adminID, 1, "golden_unicorn")
	assert.ErrorIs(t, err, common.ErrUnknownBadge)

	*now = now.Add(SessionTTL + time.Second)
	_, err = svc.GrantBadge(ctx, adminID, 1, "zen_week")
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestRecomputeAllKinds(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := newTestService(t)
	require.NoError(t, svc.Login(ctx, adminID, "s3cret"))

	snaps, err := svc.Recompute(ctx, adminID, 1)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
	assert.ElementsMatch(t, streak.Kinds, rec.recomputed)

	require.NoError(t, svc.Logout(ctx, adminID))
	_, err = svc.Recompute(ctx, adminID, 1)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestAdminCommandsRejectUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, rec, _ := newTestService(t)
	require.NoError(t, svc.Login(ctx, adminID, "s3cret"))

	_, err := svc.GrantBadge(ctx, adminID, 999, "zen_week")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	_, err = svc.Recompute(ctx, adminID, 999)
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	assert.Empty(t, rec.badges)
	assert.Empty(t, rec.recomputed)
}
