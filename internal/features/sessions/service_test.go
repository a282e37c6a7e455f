package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

type memStore struct{ sessions []*Session }

func (m *memStore) StartSession(_ context.Context, s *Session) error {
	for _, old := range m.sessions {
		if old.UserID == s.UserID && old.Kind == s.Kind && old.CompletedAt == nil {
			old.Abandoned = true
		}
	}
	cp := *s
	m.sessions = append(m.sessions, &cp)
	return nil
}

func (m *memStore) GetOpen(_ context.Context, userID int64, kind streak.ActivityKind) (*Session, error) {
	for i := len(m.sessions) - 1; i >= 0; i-- {
		s := m.sessions[i]
		if s.UserID == userID && (kind == "" || s.Kind == kind) && s.CompletedAt == nil && !s.Abandoned {
			cp := *s
			return &cp, nil
		}
	}
	return nil, common.ErrNoOpenSession
}

func (m *memStore) CompleteSession(_ context.Context, id uuid.UUID, completedAt time.Time, durationSeconds int) error {
	for _, s := range m.sessions {
		if s.ID == id && s.CompletedAt == nil {
			s.CompletedAt = &completedAt
			s.DurationSeconds = durationSeconds
			return nil
		}
	}
	return common.ErrNoOpenSession
}

func (m *memStore) CountCompleted(_ context.Context, userID int64, kind streak.ActivityKind) (int, error) {
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID && s.Kind == kind && s.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

func (m *memStore) LatestCompleted(_ context.Context, userID int64) (*Session, error) {
	var latest *Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.CompletedAt != nil && (latest == nil || s.CompletedAt.After(*latest.CompletedAt)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, common.ErrNoCompletedSession
	}
	return latest, nil
}

func (m *memStore) SetRating(_ context.Context, id uuid.UUID, rating int) error {
	for _, s := range m.sessions {
		if s.ID == id {
			s.Rating = &rating
		}
	}
	return nil
}

func (m *memStore) completions(userID int64, kind streak.ActivityKind) []time.Time {
	var out []time.Time
	for _, s := range m.sessions {
		if s.UserID == userID && s.Kind == kind && s.CompletedAt != nil {
			out = append(out, *s.CompletedAt)
		}
	}
	return out
}

// engine считает стрики по memStore и записывает празднования.
type engine struct {
	store      *memStore
	now        func() time.Time
	emitted    []celebration.EventType
	badges     []celebration.BadgeType
	milestones []string
}

func (e *engine) HasActivityToday(_ context.Context, userID int64, kind streak.ActivityKind) (bool, error) {
	return streak.Compute(e.store.completions(userID, kind), e.now()).IsActiveToday, nil
}

func (e *engine) Recompute(ctx context.Context, userID int64, kind streak.ActivityKind) (streak.Snapshot, error) {
	return streak.Compute(e.store.completions(userID, kind), e.now()), nil
}

func (e *engine) Emit(_ context.Context, userID int64, eventType celebration.EventType, c celebration.Context) (*celebration.Event, error) {
	e.emitted = append(e.emitted, eventType)
	if c.BadgeUnlocked != "" {
		e.badges = append(e.badges, c.BadgeUnlocked)
	}
	return &celebration.Event{UserID: userID, EventType: eventType, ScoreIncrement: celebration.Treatments[eventType].Points}, nil
}

func (e *engine) CheckMilestones(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	for _, kind := range streak.Kinds {
		snap, _ := e.Recompute(ctx, userID, kind)
		if celebration.IsMilestone(snap.Current) {
			ids = append(ids, celebration.MilestoneID(kind, snap.Current))
		}
	}
	return ids, nil
}

func (e *engine) TriggerMilestone(ctx context.Context, userID int64, id string) (*celebration.Event, error) {
	e.milestones = append(e.milestones, id)
	return e.Emit(ctx, userID, celebration.EventStreakMilestone, celebration.Context{})
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(workouts bool) (*Service, *memStore, *engine, *clock) {
	clk := &clock{t: time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)}
	store := &memStore{}
	eng := &engine{store: store, now: clk.now}
	cfg := &config.Config{FeatureWorkoutsEnabled: workouts}
	return NewService(store, eng, eng, cfg).WithClock(clk.now), store, eng, clk
}

func TestStartAndComplete(t *testing.T) {
	ctx := context.Background()
	svc, _, eng, clk := newTestService(true)

	_, already, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	assert.False(t, already)

	clk.advance(12 * time.Minute)
	res, err := svc.Complete(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)

	assert.Equal(t, 12, res.Session.Minutes())
	assert.Equal(t, 1, res.Streak.Current)
	assert.Equal(t, []celebration.EventType{celebration.EventMeditationComplete, celebration.EventBadgeUnlock}, eng.emitted)
	assert.Equal(t, []celebration.BadgeType{"first_meditation"}, eng.badges)
	assert.Empty(t, res.Milestones)

	text := FormatResult(res)
	assert.Contains(t, text, "Медитация завершена: 12 минут")
	assert.Contains(t, text, "+110 очков")
}

func TestCompleteWithoutOpenSession(t *testing.T) {
	svc, _, _, _ := newTestService(true)
	_, err := svc.Complete(context.Background(), 1, "")
	assert.ErrorIs(t, err, common.ErrNoOpenSession)
}

func TestStartAbandonsPreviousOpenSession(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(true)

	first, _, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	second, _, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)

	assert.True(t, store.sessions[0].Abandoned)
	res, err := svc.Complete(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, res.Session.ID)
	assert.NotEqual(t, first.ID, res.Session.ID)
}

func TestMilestoneCelebratedOncePerDay(t *testing.T) {
	ctx := context.Background()
	svc, _, eng, clk := newTestService(true)

	for day := 0; day < 7; day++ {
		_, _, err := svc.Start(ctx, 1, streak.KindMeditation)
		require.NoError(t, err)
		clk.advance(10 * time.Minute)
		_, err = svc.Complete(ctx, 1, streak.KindMeditation)
		require.NoError(t, err)
		clk.advance(24*time.Hour - 10*time.Minute)
	}
	assert.Equal(t, []string{"meditation_streak_3", "meditation_streak_7"}, eng.milestones)

	// Вторая сессия в тот же день: серия та же, веха не повторяется.
	clk.advance(-24 * time.Hour)
	clk.advance(2 * time.Hour)
	_, already, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	assert.True(t, already)
	res, err := svc.Complete(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Streak.Current)
	assert.Len(t, eng.milestones, 2)
	assert.Equal(t, []celebration.BadgeType{"first_meditation"}, eng.badges)
}

func TestMilestoneOfOtherKindIsNotRepeated(t *testing.T) {
	ctx := context.Background()
	svc, _, eng, clk := newTestService(true)

	for day := 0; day < 3; day++ {
		_, _, err := svc.Start(ctx, 1, streak.KindWorkout)
		require.NoError(t, err)
		_, err = svc.Complete(ctx, 1, streak.KindWorkout)
		require.NoError(t, err)
		if day < 2 {
			clk.advance(24 * time.Hour)
		}
	}
	require.Equal(t, []string{"workout_streak_3"}, eng.milestones)

	clk.advance(time.Hour)
	_, _, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	assert.Equal(t, []string{"workout_streak_3"}, eng.milestones)
}

func TestWorkoutsFeatureFlag(t *testing.T) {
	svc, _, _, _ := newTestService(false)
	_, _, err := svc.Start(context.Background(), 1, streak.KindWorkout)
	assert.ErrorIs(t, err, common.ErrFeatureDisabled)
}

func TestRate(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(true)

	_, err := svc.Rate(ctx, 1, 4)
	assert.ErrorIs(t, err, common.ErrNoCompletedSession)

	_, err = svc.Rate(ctx, 1, 6)
	assert.ErrorIs(t, err, common.ErrInvalidRating)

	_, _, err = svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, 1, "")
	require.NoError(t, err)

	sess, err := svc.Rate(ctx, 1, 5)
	require.NoError(t, err)
	require.NotNil(t, sess.Rating)
	assert.Equal(t, 5, *store.sessions[0].Rating)
}

func TestCompleteCapsForgottenSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _, clk := newTestService(true)

	_, _, err := svc.Start(ctx, 1, streak.KindMeditation)
	require.NoError(t, err)
	clk.advance(10 * time.Hour)
	res, err := svc.Complete(ctx, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int(MaxDuration.Seconds()), res.Session.DurationSeconds)
}
