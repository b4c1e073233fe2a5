package progress

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists the activity log. Upsert is keyed on (user, type, id) and
// must never produce duplicate records.
type Store interface {
	Upsert(ctx context.Context, in RecordInput) (Record, error)
	ListForUser(ctx context.Context, userID string) ([]Record, error)
	Get(ctx context.Context, key Key) (Record, error)
	// Users lists every user with at least one record, sorted.
	Users(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	records map[Key]*Record
	seq     map[Key]int64 // insertion order, the last tie-break in listings
	nextSeq int64
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory activity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[Key]*Record),
		seq:     make(map[Key]int64),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Upsert(ctx context.Context, in RecordInput) (Record, error) {
	if in.UserID == "" {
		return Record{}, fmt.Errorf("user_id is required")
	}
	in = in.WithDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	r, ok := s.records[in.Key]
	if !ok {
		r = &Record{
			ID:           uuid.NewString(),
			UserID:       in.UserID,
			ActivityType: in.ActivityType,
			ActivityID:   in.ActivityID,
			Grade:        in.Grade,
			TopicID:      in.TopicID,
			Difficulty:   in.Difficulty,
			Attempts:     1,
			CreatedAt:    now,
		}
		s.records[in.Key] = r
		s.nextSeq++
		s.seq[in.Key] = s.nextSeq
	} else if in.Status == StatusCompleted {
		r.Attempts++
	}

	r.Status = in.Status
	r.Score = in.Score
	r.MaxScore = in.MaxScore
	r.TimeSpent = in.TimeSpent
	r.UpdatedAt = now
	if in.Status == StatusCompleted && r.CompletedAt == nil {
		completed := now
		r.CompletedAt = &completed
	}
	return *r, nil
}

// ListForUser returns the user's records, newest UpdatedAt first. Equal
// timestamps fall back to creation order, latest first, so the listing is
// deterministic.
func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type listed struct {
		rec Record
		seq int64
	}
	var rows []listed
	for k, r := range s.records {
		if k.UserID == userID {
			rows = append(rows, listed{rec: *r, seq: s.seq[k]})
		}
	}
	slices.SortFunc(rows, func(a, b listed) int {
		if c := b.rec.UpdatedAt.Compare(a.rec.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out, nil
}

func (s *MemoryStore) Users(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []string
	for k := range s.records {
		users = append(users, k.UserID)
	}
	slices.Sort(users)
	return slices.Compact(users), nil
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key]
	if !ok {
		return Record{}, fmt.Errorf("get %s/%s: %w", key.ActivityType, key.ActivityID, ErrNotFound)
	}
	return *r, nil
}
