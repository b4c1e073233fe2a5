package ai

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Budget checks and records per-user token usage within a rolling window.
// A limit of zero means unlimited.
type Budget interface {
	// Check returns true if the user has budget remaining.
	Check(ctx context.Context, userID string) (bool, error)
	// Record adds token usage for the user.
	Record(ctx context.Context, userID string, tokens int) error
	// Usage returns tokens used in the current window and the limit.
	Usage(ctx context.Context, userID string) (used int64, limit int64, err error)
}

type usageWindow struct {
	used    int64
	resetAt time.Time
}

// InMemoryBudget is a single-process budget tracker, used when no cache is
// configured.
type InMemoryBudget struct {
	mu     sync.Mutex
	limit  int64
	window time.Duration
	usage  map[string]*usageWindow
	now    func() time.Time
}

// NewInMemoryBudget creates a tracker allowing limit tokens per user per window.
func NewInMemoryBudget(limit int64, window time.Duration) *InMemoryBudget {
	return &InMemoryBudget{
		limit:  limit,
		window: window,
		usage:  make(map[string]*usageWindow),
		now:    time.Now,
	}
}

// current returns the live window for userID, discarding an expired one.
// Callers must hold b.mu.
func (b *InMemoryBudget) current(userID string) *usageWindow {
	w, ok := b.usage[userID]
	if ok && b.window > 0 && !b.now().Before(w.resetAt) {
		delete(b.usage, userID)
		ok = false
	}
	if !ok {
		return nil
	}
	return w
}

func (b *InMemoryBudget) Check(ctx context.Context, userID string) (bool, error) {
	if b.limit <= 0 {
		return true, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.current(userID)
	if w == nil {
		return true, nil
	}
	return w.used < b.limit, nil
}

func (b *InMemoryBudget) Record(ctx context.Context, userID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w := b.current(userID)
	if w == nil {
		w = &usageWindow{resetAt: b.now().Add(b.window)}
		b.usage[userID] = w
	}
	w.used += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(ctx context.Context, userID string) (int64, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w := b.current(userID); w != nil {
		return w.used, b.limit, nil
	}
	return 0, b.limit, nil
}
