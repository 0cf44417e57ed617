package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antagonist-oracle/oracle-bot/pkg/config"
)

func testRulesConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled: true,
		PerUser: config.RateLimitRule{Limit: 30, Window: "1m"},
		Global:  config.RateLimitRule{Limit: 1000, Window: "1m"},
		Commands: config.RateLimitCommands{
			Draw: config.RateLimitRule{Limit: 10, Window: "1m"},
		},
		Whitelist: []int64{42},
	}
}

func TestMemoryLimiter_BlocksWhenExceeded(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:1", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(ctx, "user:2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryLimiter_Cleanup(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger()).(*MemoryLimiter)
	ctx := context.Background()

	_, err := limiter.Check(ctx, "user:1", 5, time.Minute)
	require.NoError(t, err)

	limiter.Cleanup(time.Nanosecond)

	limiter.mu.RLock()
	defer limiter.mu.RUnlock()
	assert.Empty(t, limiter.buckets)
}

func TestRules_CommandLimit(t *testing.T) {
	rules := NewRules(testRulesConfig())

	limit, window, err := rules.GetCommandLimit("draw")
	require.NoError(t, err)
	assert.Equal(t, 10, limit)
	assert.Equal(t, time.Minute, window)

	_, _, err = rules.GetCommandLimit("unknown")
	assert.Error(t, err)
}

func TestRules_Whitelist(t *testing.T) {
	rules := NewRules(testRulesConfig())

	assert.True(t, rules.IsWhitelisted(42))
	assert.False(t, rules.IsWhitelisted(43))
}
