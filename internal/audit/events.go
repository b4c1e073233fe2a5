// Package audit keeps the admin-facing account activity log, user roles and
// the spreadsheet export built from them.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout = 5 * time.Second

	// DefaultRecentLimit is the page size of the admin activity view.
	DefaultRecentLimit = 100
)

// ErrInvalid is returned for events or grants with missing or unknown fields.
var ErrInvalid = errors.New("invalid audit entry")

// EventType is an account lifecycle event.
type EventType string

const (
	EventLogin  EventType = "login"
	EventSignup EventType = "signup"
	EventLogout EventType = "logout"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventLogin, EventSignup, EventLogout:
		return true
	}
	return false
}

// Event is one row of the account activity log.
type Event struct {
	UserID       string    `json:"user_id"`
	UserEmail    string    `json:"user_email,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	ActivityType EventType `json:"activity_type"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e Event) validate() error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if !e.ActivityType.Valid() {
		return fmt.Errorf("%w: unknown activity_type %q", ErrInvalid, e.ActivityType)
	}
	return nil
}

// Logger records account events.
type Logger interface {
	LogEvent(ctx context.Context, event Event) error
	// Recent returns up to limit events, newest first. limit <= 0 means
	// DefaultRecentLimit.
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// NopLogger ignores all events.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, Event) error { return nil }

func (NopLogger) Recent(context.Context, int) ([]Event, error) { return nil, nil }

// MemoryLogger stores events in memory.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{events: []Event{}}
}

func (l *MemoryLogger) LogEvent(ctx context.Context, event Event) error {
	if err := event.validate(); err != nil {
		return err
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
	return nil
}

func (l *MemoryLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	l.mu.Lock()
	out := slices.Clone(l.events)
	l.mu.Unlock()

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b Event) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PostgresLogger inserts events into the user_activity table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresLogger(pool *pgxpool.Pool) *PostgresLogger {
	return &PostgresLogger{pool: pool}
}

func (l *PostgresLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := event.validate(); err != nil {
		return err
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := l.pool.Exec(ctx,
		`INSERT INTO user_activity (user_id, activity_type, user_email, user_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.UserID,
		string(event.ActivityType),
		nullIfEmpty(event.UserEmail),
		nullIfEmpty(event.UserName),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.ActivityType,
		"user_id", event.UserID,
	)
	return nil
}

func (l *PostgresLogger) Recent(ctx context.Context, limit int) ([]Event, error) {
	if l == nil || l.pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx,
		`SELECT user_id, activity_type, COALESCE(user_email, ''), COALESCE(user_name, ''), created_at
		 FROM user_activity
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var eventType string
		if err := rows.Scan(&e.UserID, &eventType, &e.UserEmail, &e.UserName, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.ActivityType = EventType(eventType)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
