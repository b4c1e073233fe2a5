package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-literacy/internal/platform/cache"
)

// RedisBudget keeps per-user token counters in Redis/Dragonfly so every
// server instance shares one budget. Each counter expires one window after
// its first write.
type RedisBudget struct {
	client redis.UniversalClient
	limit  int64
	window time.Duration
}

// NewRedisBudget creates a shared budget tracker.
func NewRedisBudget(client redis.UniversalClient, limit int64, window time.Duration) *RedisBudget {
	return &RedisBudget{client: client, limit: limit, window: window}
}

func budgetKey(userID string) string {
	return cache.Key("budget", "tokens", userID)
}

func (b *RedisBudget) used(ctx context.Context, userID string) (int64, error) {
	n, err := b.client.Get(ctx, budgetKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read token usage: %w", err)
	}
	return n, nil
}

func (b *RedisBudget) Check(ctx context.Context, userID string) (bool, error) {
	if b.limit <= 0 {
		return true, nil
	}
	n, err := b.used(ctx, userID)
	if err != nil {
		return false, err
	}
	return n < b.limit, nil
}

func (b *RedisBudget) Record(ctx context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	key := budgetKey(userID)
	pipe := b.client.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	if b.window > 0 {
		pipe.ExpireNX(ctx, key, b.window)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record token usage: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context, userID string) (int64, int64, error) {
	n, err := b.used(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return n, b.limit, nil
}
