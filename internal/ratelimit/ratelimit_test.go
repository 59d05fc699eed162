package ratelimit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"monitoring-portal/internal/ratelimit"
)

func TestAllowRequest_MinuteLimit(t *testing.T) {
	rl := ratelimit.NewRateLimiter(2, 100, true)

	assert.True(t, rl.AllowRequest())
	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest())
}

func TestAllowRequest_HourLimit(t *testing.T) {
	rl := ratelimit.NewRateLimiter(100, 3, true)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.AllowRequest())
}

func TestAllowRequest_Disabled(t *testing.T) {
	rl := ratelimit.NewRateLimiter(1, 1, false)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.AllowRequest())
	}
	assert.False(t, rl.GetStats().Enabled)
}

func TestReset(t *testing.T) {
	rl := ratelimit.NewRateLimiter(1, 1, true)

	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest())

	rl.Reset()
	assert.True(t, rl.AllowRequest())
}

func TestGetStats(t *testing.T) {
	rl := ratelimit.NewRateLimiter(5, 60, true)
	rl.AllowRequest()
	rl.AllowRequest()

	stats := rl.GetStats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.RequestsLastMinute)
	assert.Equal(t, 2, stats.RequestsLastHour)
	assert.Equal(t, 3, stats.RemainingThisMinute)
	assert.Equal(t, 58, stats.RemainingThisHour)
}
