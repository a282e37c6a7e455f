package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeDays(t *testing.T) {
	cases := map[int]string{
		0: "дней", 1: "день", 2: "дня", 4: "дня", 5: "дней",
		11: "дней", 12: "дней", 14: "дней", 21: "день", 22: "дня", 111: "дней", 365: "дней",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeDays(n), "n=%d", n)
	}
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "1 очко", FormatPoints(1))
	assert.Equal(t, "3 очка", FormatPoints(3))
	assert.Equal(t, "100 очков", FormatPoints(100))
	assert.Equal(t, "+50 очков", FormatPointsDelta(50))
	assert.Equal(t, "-2 очка", FormatPointsDelta(-2))
}
