package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDayUsesLocation(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 22:30 UTC — это уже следующий день в Москве.
	ts := time.Date(2026, time.March, 1, 22, 30, 0, 0, time.UTC)
	day := CalendarDay(ts, moscow)

	assert.Equal(t, 2, day.Day())
	assert.Equal(t, 0, day.Hour())
	assert.Equal(t, moscow, day.Location())
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// В ночь на 29.03.2026 в Берлине переход на летнее время: сутки длиной 23 часа.
	before := time.Date(2026, time.March, 28, 0, 0, 0, 0, berlin)
	after := time.Date(2026, time.March, 29, 0, 0, 0, 0, berlin)
	assert.Equal(t, 1, DaysBetween(before, after))
	assert.Equal(t, -1, DaysBetween(after, before))

	autumn := time.Date(2026, time.October, 25, 0, 0, 0, 0, berlin)
	assert.Equal(t, 1, DaysBetween(autumn, AddDays(autumn, 1)))
}

func TestDayBounds(t *testing.T) {
	ts := time.Date(2026, time.October, 18, 15, 4, 5, 0, time.UTC)
	start, end := DayBounds(ts, time.UTC)
	assert.Equal(t, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("Nowhere/Land", time.UTC))
	assert.Equal(t, time.UTC, LoadLocation("", time.UTC))
}
