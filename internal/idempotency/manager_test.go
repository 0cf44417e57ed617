package idempotency

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(NewRedisStore(client, log), log)
}

func TestExecute_RunsOperationOnce(t *testing.T) {
	mgr := setupManager(t)
	ctx := context.Background()

	calls := 0
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		return "dealt", nil
	}

	first, err := mgr.Execute(ctx, "draw-1", time.Minute, op)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "dealt", first.Response)

	second, err := mgr.Execute(ctx, "draw-1", time.Minute, op)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, "dealt", second.Response)

	assert.Equal(t, 1, calls)
}

func TestExecute_DistinctKeysRunIndependently(t *testing.T) {
	mgr := setupManager(t)
	ctx := context.Background()

	calls := 0
	op := func(ctx context.Context) (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := mgr.Execute(ctx, "a", time.Minute, op)
	require.NoError(t, err)
	_, err = mgr.Execute(ctx, "b", time.Minute, op)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestGenerateKey_Deterministic(t *testing.T) {
	assert.Equal(t, GenerateKey("cb", int64(7), "draw_again"), GenerateKey("cb", int64(7), "draw_again"))
	assert.NotEqual(t, GenerateKey("cb", int64(7)), GenerateKey("cb", int64(8)))
}
