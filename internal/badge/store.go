package badge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store persists awarded badges. Award is insert-if-absent: awarding a name
// the user already holds returns inserted=false and no error. There is no
// delete.
type Store interface {
	List(ctx context.Context, userID string) ([]Badge, error)
	Award(ctx context.Context, b Badge) (inserted bool, err error)
}

type awardKey struct {
	userID string
	name   string
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	badges map[awardKey]Badge
	order  []awardKey
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory badge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{badges: make(map[awardKey]Badge)}
}

// List returns the user's badges in award order.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Badge
	for _, k := range s.order {
		if k.userID == userID {
			out = append(out, s.badges[k])
		}
	}
	return out, nil
}

func (s *MemoryStore) Award(ctx context.Context, b Badge) (bool, error) {
	if b.UserID == "" || b.Name == "" {
		return false, fmt.Errorf("user_id and badge name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := awardKey{userID: b.UserID, name: b.Name}
	if _, ok := s.badges[k]; ok {
		return false, nil
	}
	if b.EarnedAt.IsZero() {
		b.EarnedAt = time.Now()
	}
	s.badges[k] = b
	s.order = append(s.order, k)
	return true, nil
}
