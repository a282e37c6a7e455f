package streak

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moscow = mustLoad("Europe/Moscow")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// day возвращает момент offset дней от now в то же время суток.
func day(now time.Time, offset int, hour int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()+offset, hour, 0, 0, 0, now.Location())
}

func TestComputeEmpty(t *testing.T) {
	snap := Compute(nil, time.Now())
	assert.Equal(t, Snapshot{}, snap)
	assert.Nil(t, snap.LastActivityDate)
}

func TestComputeActiveToday(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, moscow)
	snap := Compute([]time.Time{day(now, 0, 9), day(now, -1, 9), day(now, -2, 9)}, now)

	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 3, snap.Longest)
	assert.True(t, snap.IsActiveToday)
	require.NotNil(t, snap.LastActivityDate)
	assert.Equal(t, 10, snap.LastActivityDate.Day())
}

func TestComputeBrokenStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, moscow)
	snap := Compute([]time.Time{day(now, -2, 9), day(now, -3, 9)}, now)

	assert.Equal(t, 0, snap.Current)
	assert.Equal(t, 2, snap.Longest)
	assert.False(t, snap.IsActiveToday)
}

func TestComputeActiveYesterday(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, moscow)
	snap := Compute([]time.Time{day(now, -1, 9), day(now, -2, 9), day(now, -3, 9)}, now)

	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 3, snap.Longest)
	assert.False(t, snap.IsActiveToday)
}

func TestComputeWithFutureDatedCompletion(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, moscow)

	snap := Compute([]time.Time{day(now, 1, 9), day(now, 0, 9)}, now)
	assert.Equal(t, 1, snap.Current)
	assert.Equal(t, 2, snap.Longest)
	require.NotNil(t, snap.LastActivityDate)
	assert.Equal(t, 11, snap.LastActivityDate.Day())

	snap = Compute([]time.Time{day(now, 1, 9), day(now, 0, 9), day(now, -1, 9)}, now)
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 3, snap.Longest)

	// Сегодня пусто, вчера было: серия всё ещё тянется от вчера.
	snap = Compute([]time.Time{day(now, 2, 9), day(now, -1, 9), day(now, -2, 9)}, now)
	assert.Equal(t, 2, snap.Current)
	assert.False(t, snap.IsActiveToday)
}

func TestComputeSameDayDuplicates(t *testing.T) {
	now := time.Date(2024, 3, 10, 21, 0, 0, 0, moscow)
	single := Compute([]time.Time{day(now, 0, 8)}, now)
	double := Compute([]time.Time{day(now, 0, 8), day(now, 0, 20)}, now)

	assert.Equal(t, single.Current, double.Current)
	assert.Equal(t, 1, double.Current)
	assert.Equal(t, 1, double.Longest)
}

func TestComputeLongestFromEarlierRun(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, moscow)
	var history []time.Time
	for i := 10; i < 15; i++ {
		history = append(history, day(now, -i, 7))
	}
	history = append(history, day(now, 0, 7), day(now, -1, 7))

	snap := Compute(history, now)
	assert.Equal(t, 2, snap.Current)
	assert.Equal(t, 5, snap.Longest)
}

func TestComputeUsesCalendarOfNow(t *testing.T) {
	// 23:30 по Москве 9 марта — это 20:30 UTC того же дня,
	// а 00:30 по Москве 11 марта — 21:30 UTC 10 марта.
	history := []time.Time{
		time.Date(2024, 3, 9, 20, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 10, 21, 30, 0, 0, time.UTC),
	}
	now := time.Date(2024, 3, 11, 10, 0, 0, 0, moscow)

	snap := Compute(history, now)
	assert.True(t, snap.IsActiveToday)
	assert.Equal(t, 1, snap.Current)

	// В UTC это два дня подряд, и сегодня (11-е) активности нет.
	snapUTC := Compute(history, now.In(time.UTC))
	assert.False(t, snapUTC.IsActiveToday)
	assert.Equal(t, 2, snapUTC.Current)
}

func TestComputeAcrossDSTTransition(t *testing.T) {
	berlin := mustLoad("Europe/Berlin")
	// 31 марта 2024 в Берлине сутки длятся 23 часа.
	history := []time.Time{
		time.Date(2024, 3, 30, 23, 50, 0, 0, berlin),
		time.Date(2024, 3, 31, 23, 50, 0, 0, berlin),
		time.Date(2024, 4, 1, 0, 10, 0, 0, berlin),
	}
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, berlin)

	snap := Compute(history, now)
	assert.Equal(t, 3, snap.Current)
	assert.Equal(t, 3, snap.Longest)
}

func TestComputeLongestNeverBelowCurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, moscow)

	for i := 0; i < 500; i++ {
		n := rng.Intn(40)
		history := make([]time.Time, 0, n)
		for j := 0; j < n; j++ {
			history = append(history, day(now, -rng.Intn(60), rng.Intn(24)))
		}
		snap := Compute(history, now)
		assert.GreaterOrEqual(t, snap.Longest, snap.Current)
		assert.GreaterOrEqual(t, snap.Current, 0)
		if n == 0 {
			assert.Equal(t, Snapshot{}, snap)
		}
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Медитация ")
	require.NoError(t, err)
	assert.Equal(t, KindMeditation, kind)

	kind, err = ParseKind("workout")
	require.NoError(t, err)
	assert.Equal(t, KindWorkout, kind)

	_, err = ParseKind("yoga")
	assert.Error(t, err)
}
