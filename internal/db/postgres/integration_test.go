//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"serotonyl.ru/wellness-bot/internal/common"
	"serotonyl.ru/wellness-bot/internal/config"
	"serotonyl.ru/wellness-bot/internal/db/postgres"
	"serotonyl.ru/wellness-bot/internal/features/celebration"
	"serotonyl.ru/wellness-bot/internal/features/economy"
	"serotonyl.ru/wellness-bot/internal/features/members"
	"serotonyl.ru/wellness-bot/internal/features/sessions"
	"serotonyl.ru/wellness-bot/internal/features/streak"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("wellness_bot"),
		postgrescontainer.WithUsername("botuser"),
		postgrescontainer.WithPassword("botuser"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.Connect(ctx, dsn, postgres.PoolOptions{MaxConns: 5})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	// повторный запуск ничего не применяет
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func TestRepositories(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	const userID = int64(1001)

	require.NoError(t, members.NewRepository(pool).Upsert(ctx, userID, members.Profile{FirstName: "Аня"}))

	t.Run("unlock is unique per badge", func(t *testing.T) {
		repo := celebration.NewRepository(pool)
		fresh, err := repo.InsertUnlock(ctx, userID, "zen_week", 50)
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = repo.InsertUnlock(ctx, userID, "zen_week", 50)
		require.NoError(t, err)
		assert.False(t, fresh)

		unlocks, err := repo.ListUnlocks(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, unlocks, 1)
	})

	t.Run("mark viewed is idempotent", func(t *testing.T) {
		repo := celebration.NewRepository(pool)
		e := &celebration.Event{
			UserID:         userID,
			EventType:      celebration.EventMeditationComplete,
			ScoreIncrement: 10,
			Message:        "ok",
		}
		require.NoError(t, repo.InsertEvent(ctx, e))
		require.NotZero(t, e.ID)

		require.NoError(t, repo.MarkViewed(ctx, userID, e.ID))
		require.NoError(t, repo.MarkViewed(ctx, userID, e.ID))
		assert.ErrorIs(t, repo.MarkViewed(ctx, userID+1, e.ID), common.ErrCelebrationNotFound)

		unviewed, err := repo.ListUnviewed(ctx, userID, 10)
		require.NoError(t, err)
		assert.Empty(t, unviewed)

		// в Telegram ещё не отправлено
		pending, err := repo.ListUndelivered(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.NoError(t, repo.MarkDelivered(ctx, e.ID))
		pending, err = repo.ListUndelivered(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("badge is read back only when unlocked", func(t *testing.T) {
		repo := celebration.NewRepository(pool)
		owned, missing := celebration.BadgeType("zen_week"), celebration.BadgeType("iron_year")
		for _, badge := range []celebration.BadgeType{owned, missing} {
			b := badge
			require.NoError(t, repo.InsertEvent(ctx, &celebration.Event{
				UserID:        userID,
				EventType:     celebration.EventStreakMilestone,
				BadgeUnlocked: &b,
				Message:       "milestone",
			}))
		}

		unviewed, err := repo.ListUnviewed(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, unviewed, 2)
		require.NotNil(t, unviewed[0].BadgeUnlocked)
		assert.Equal(t, owned, *unviewed[0].BadgeUnlocked)
		assert.Nil(t, unviewed[1].BadgeUnlocked)
	})

	t.Run("award accumulates", func(t *testing.T) {
		repo := economy.NewRepository(pool)
		before, after, err := repo.Award(ctx, userID, 300, economy.TxTypeCelebration, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(0), before)
		assert.Equal(t, int64(300), after)

		before, after, err = repo.Award(ctx, userID, 250, economy.TxTypeCelebration, "b")
		require.NoError(t, err)
		assert.Equal(t, int64(300), before)
		assert.Equal(t, int64(550), after)

		txs, err := repo.GetTransactions(ctx, userID, 10)
		require.NoError(t, err)
		assert.Len(t, txs, 2)
	})
}

func TestSessionFlowAcrossDays(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	const userID = int64(2002)

	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	cfg := &config.Config{
		StreakReminderThreshold: 3,
		StreakReminderHour:      19,
		FeatureWorkoutsEnabled:  true,
	}

	memberSvc := members.NewService(members.NewRepository(pool), loc)
	require.NoError(t, memberSvc.EnsureMember(ctx, userID, members.Profile{FirstName: "Борис"}))

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, loc)
	clock := func() time.Time { return now }

	economySvc := economy.NewService(economy.NewRepository(pool))
	streakSvc := streak.NewService(streak.NewRepository(pool), memberSvc, loc, cfg).WithClock(clock)
	celebrationSvc := celebration.NewService(celebration.NewRepository(pool), streakSvc, economySvc, celebration.NopPublisher{})
	sessionSvc := sessions.NewService(sessions.NewRepository(pool), streakSvc, celebrationSvc, cfg).WithClock(clock)

	var last *sessions.Result
	for day := 0; day < 3; day++ {
		now = time.Date(2026, 3, 1+day, 8, 0, 0, 0, loc)
		_, _, err := sessionSvc.Start(ctx, userID, streak.KindMeditation)
		require.NoError(t, err)
		now = now.Add(20 * time.Minute)
		last, err = sessionSvc.Complete(ctx, userID, streak.KindMeditation)
		require.NoError(t, err)
		assert.Equal(t, day+1, last.Streak.Current)
	}
	assert.Equal(t, []string{"meditation_streak_3"}, last.Milestones)

	// вторая сессия за день не празднует веху повторно
	now = now.Add(time.Hour)
	_, _, err = sessionSvc.Start(ctx, userID, streak.KindMeditation)
	require.NoError(t, err)
	now = now.Add(10 * time.Minute)
	again, err := sessionSvc.Complete(ctx, userID, streak.KindMeditation)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Streak.Current)
	assert.Empty(t, again.Milestones)

	unlocks, err := celebrationSvc.Achievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, celebration.BadgeType("first_meditation"), unlocks[0].BadgeType)

	snaps, err := streakSvc.Snapshots(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, snaps[streak.KindMeditation].Longest)
	assert.Equal(t, 0, snaps[streak.KindWorkout].Current)

	balance, err := economySvc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Positive(t, balance.TotalEarned)
}
