package audit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Role is an authorization role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// RoleGrant is one (user, role) assignment.
type RoleGrant struct {
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleStore manages role assignments. Grant is idempotent.
type RoleStore interface {
	Grant(ctx context.Context, userID string, role Role) (RoleGrant, error)
	HasRole(ctx context.Context, userID string, role Role) (bool, error)
	// List returns every grant, newest first.
	List(ctx context.Context) ([]RoleGrant, error)
}

func validateGrant(userID string, role Role) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	return nil
}

// MemoryRoleStore is an in-memory RoleStore.
type MemoryRoleStore struct {
	mu     sync.RWMutex
	grants []RoleGrant
}

func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{}
}

func (s *MemoryRoleStore) Grant(ctx context.Context, userID string, role Role) (RoleGrant, error) {
	if err := validateGrant(userID, role); err != nil {
		return RoleGrant{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.grants {
		if g.UserID == userID && g.Role == role {
			return g, nil
		}
	}
	g := RoleGrant{UserID: userID, Role: role, CreatedAt: time.Now()}
	s.grants = append(s.grants, g)
	return g, nil
}

func (s *MemoryRoleStore) HasRole(ctx context.Context, userID string, role Role) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.ContainsFunc(s.grants, func(g RoleGrant) bool {
		return g.UserID == userID && g.Role == role
	}), nil
}

func (s *MemoryRoleStore) List(ctx context.Context) ([]RoleGrant, error) {
	s.mu.RLock()
	out := slices.Clone(s.grants)
	s.mu.RUnlock()

	slices.Reverse(out)
	return out, nil
}

// PostgresRoleStore keeps roles in the user_roles table.
type PostgresRoleStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRoleStore(pool *pgxpool.Pool) (*PostgresRoleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresRoleStore{pool: pool}, nil
}

func (s *PostgresRoleStore) Grant(ctx context.Context, userID string, role Role) (RoleGrant, error) {
	if err := validateGrant(userID, role); err != nil {
		return RoleGrant{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	g := RoleGrant{UserID: userID, Role: role}
	// The no-op update makes RETURNING yield the existing row on conflict.
	err := s.pool.QueryRow(ctx,
		`INSERT INTO user_roles (user_id, role)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, role) DO UPDATE SET role = EXCLUDED.role
		 RETURNING created_at`,
		userID, string(role),
	).Scan(&g.CreatedAt)
	if err != nil {
		return RoleGrant{}, fmt.Errorf("grant role: %w", err)
	}
	return g, nil
}

func (s *PostgresRoleStore) HasRole(ctx context.Context, userID string, role Role) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, string(role),
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return true, nil
}

func (s *PostgresRoleStore) List(ctx context.Context) ([]RoleGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role, created_at FROM user_roles ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var out []RoleGrant
	for rows.Next() {
		var g RoleGrant
		var role string
		if err := rows.Scan(&g.UserID, &role, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		g.Role = Role(role)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return out, nil
}
