package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		BotMaxInflight:              64,
		BotUpdateTimeoutSeconds:     60,
		DBMaxConns:                  25,
		DBMinConns:                  5,
		AppTimezone:                 "Europe/Moscow",
		StreakReminderHour:          19,
		CelebrationDeliveryInterval: time.Minute,
		RateLimitRequests:           10,
		RateLimitWindow:             time.Minute,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(c *Config){
		"inflight":     func(c *Config) { c.BotMaxInflight = 0 },
		"timeout":      func(c *Config) { c.BotUpdateTimeoutSeconds = 0 },
		"conns":        func(c *Config) { c.DBMinConns = 30 },
		"timezone":     func(c *Config) { c.AppTimezone = "Mars/Olympus" },
		"reminderHour": func(c *Config) { c.StreakReminderHour = 24 },
		"delivery":     func(c *Config) { c.CelebrationDeliveryInterval = 0 },
		"rateLimit":    func(c *Config) { c.RateLimitWindow = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseInt64CSV(t *testing.T) {
	ids, err := parseInt64CSV(" 1, 22 ,333")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 22, 333}, ids)

	ids, err = parseInt64CSV("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseInt64CSV("1,abc")
	assert.Error(t, err)
}

func TestParseStringCSV(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, parseStringCSV("kafka-1:9092, ,kafka-2:9092"))
	assert.Nil(t, parseStringCSV(""))
}

func TestIsAdmin(t *testing.T) {
	c := &Config{AdminIDs: []int64{7, 42}}
	assert.True(t, c.IsAdmin(42))
	assert.False(t, c.IsAdmin(1))
}
