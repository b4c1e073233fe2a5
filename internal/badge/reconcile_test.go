package badge_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/p-n-ai/pai-literacy/internal/badge"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

// countingStore records how many Award calls reach the underlying store.
type countingStore struct {
	badge.Store
	mu     sync.Mutex
	awards int
}

func (s *countingStore) Award(ctx context.Context, b badge.Badge) (bool, error) {
	s.mu.Lock()
	s.awards++
	s.mu.Unlock()
	return s.Store.Award(ctx, b)
}

type failingStore struct{}

func (failingStore) List(context.Context, string) ([]badge.Badge, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Award(context.Context, badge.Badge) (bool, error) {
	return false, errors.New("connection refused")
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := t.Context()
	store := &countingStore{Store: badge.NewMemoryStore()}
	stats := progress.Stats{
		Lessons: progress.ProgressCounts{Completed: 6},
		Quizzes: progress.ScoredCounts{Completed: 5, AverageScore: 84},
	}

	first, err := badge.Reconcile(ctx, store, "u1", stats)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("first pass awarded %d, want 3", len(first))
	}
	writes := store.awards

	second, err := badge.Reconcile(ctx, store, "u1", stats)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second pass awarded %v, want none", second)
	}
	if store.awards != writes {
		t.Errorf("second pass issued %d writes, want 0", store.awards-writes)
	}
}

func TestReconcile_NeverRevokes(t *testing.T) {
	ctx := t.Context()
	store := badge.NewMemoryStore()

	_, err := badge.Reconcile(ctx, store, "u1", progress.Stats{
		Quizzes: progress.ScoredCounts{Completed: 3, AverageScore: 90},
	})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	// Average drops below the threshold.
	_, err = badge.Reconcile(ctx, store, "u1", progress.Stats{
		Quizzes: progress.ScoredCounts{Completed: 4, AverageScore: 50},
	})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	held, _ := store.List(ctx, "u1")
	found := false
	for _, b := range held {
		if b.Name == "High Achiever" {
			found = true
		}
	}
	if !found {
		t.Errorf("High Achiever was revoked; held = %v", held)
	}
}

func TestReconcile_EmptyStatsAwardsNothing(t *testing.T) {
	store := badge.NewMemoryStore()
	got, err := badge.Reconcile(t.Context(), store, "u1", progress.Aggregate(nil))
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Reconcile() = %v, want none", got)
	}
}

func TestReconcile_ConcurrentCallersAwardOnce(t *testing.T) {
	ctx := t.Context()
	store := badge.NewMemoryStore()
	stats := progress.Stats{Missions: progress.ProgressCounts{Completed: 3}}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := badge.Reconcile(ctx, store, "u1", stats)
			if err != nil {
				t.Errorf("Reconcile() error = %v", err)
				return
			}
			mu.Lock()
			total += len(got)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 2 {
		t.Errorf("newly awarded across callers = %d, want 2", total)
	}
	held, _ := store.List(ctx, "u1")
	if len(held) != 2 {
		t.Errorf("held = %d, want 2", len(held))
	}
}

func TestReconcile_StoreFailure(t *testing.T) {
	_, err := badge.Reconcile(t.Context(), failingStore{}, "u1", progress.Stats{})
	if err == nil {
		t.Fatal("Reconcile() should surface a list failure")
	}
}
