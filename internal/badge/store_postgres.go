package badge

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Duplicate awards are absorbed
// by the (user_id, badge_name) unique constraint.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed badge store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]Badge, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT user_id, badge_name, badge_icon, badge_description, earned_at
		 FROM user_badges
		 WHERE user_id = $1
		 ORDER BY earned_at ASC, badge_name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var out []Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.UserID, &b.Name, &b.Icon, &b.Description, &b.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Award(ctx context.Context, b Badge) (bool, error) {
	if b.UserID == "" || b.Name == "" {
		return false, fmt.Errorf("user_id and badge name are required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	earnedAt := b.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = time.Now()
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO user_badges (user_id, badge_name, badge_icon, badge_description, earned_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, badge_name) DO NOTHING`,
		b.UserID, b.Name, b.Icon, b.Description, earnedAt,
	)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
