package state

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateScanBatchCount = 100

// Cleaner removes stale FSM states on a schedule. Redis expiry already prunes
// abandoned conversations; the cleaner is a second line of defense against
// records whose TTL was lost (e.g. after a PERSIST or a restore from dump).
type Cleaner struct {
	redisClient *redis.Client
	storage     Storage
	log         *slog.Logger
	ttl         time.Duration
	interval    time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(redisClient *redis.Client, storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		redisClient: redisClient,
		storage:     storage,
		log:         log,
		ttl:         ttl,
		interval:    interval,
	}
}

// Run starts the cleanup loop until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.redisClient == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	var cursor uint64

	for {
		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, userStateScanPattern, stateScanBatchCount).Result()
		if err != nil {
			c.log.Error("state cleaner scan failed", slog.Any("error", err))
			return
		}

		for _, key := range keys {
			c.cleanupKey(ctx, key)
		}

		cursor = nextCursor
		if cursor == 0 {
			return
		}
	}
}

func (c *Cleaner) cleanupKey(ctx context.Context, key string) {
	userID, ok := userIDFromStateKey(key)
	if !ok {
		return
	}

	userState, err := c.storage.GetState(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			c.log.Warn("state cleaner failed to load state", slog.String("key", key), slog.Any("error", err))
		}
		return
	}

	if time.Since(userState.UpdatedAt) < c.ttl {
		return
	}

	if err := c.storage.ClearState(ctx, userID); err != nil {
		c.log.Warn("state cleaner failed to clear state", slog.Int64("user_id", userID), slog.Any("error", err))
		return
	}

	c.log.Info("cleared stale user state", slog.Int64("user_id", userID), slog.String("state", string(userState.CurrentState)))
}

func userIDFromStateKey(key string) (int64, bool) {
	idx := strings.LastIndex(key, ":")
	if idx == -1 {
		return 0, false
	}

	userID, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return 0, false
	}

	return userID, true
}
