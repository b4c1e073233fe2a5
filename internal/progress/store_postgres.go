package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Uniqueness of the record key is
// enforced by the table's unique constraint and a single upsert statement.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed activity store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

const recordColumns = `id::text, user_id, activity_type, activity_id, grade, topic_id, difficulty,
	status, score, max_score, time_spent, attempts, created_at, updated_at, completed_at`

func (s *PostgresStore) Upsert(ctx context.Context, in RecordInput) (Record, error) {
	if in.UserID == "" {
		return Record{}, fmt.Errorf("user_id is required")
	}
	in = in.WithDefaults()

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`INSERT INTO activity_progress
		   (user_id, activity_type, activity_id, grade, topic_id, difficulty,
		    status, score, max_score, time_spent, attempts, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1,
		         CASE WHEN $7::text = 'completed' THEN now() END)
		 ON CONFLICT (user_id, activity_type, activity_id) DO UPDATE SET
		   status       = EXCLUDED.status,
		   score        = EXCLUDED.score,
		   max_score    = EXCLUDED.max_score,
		   time_spent   = EXCLUDED.time_spent,
		   attempts     = activity_progress.attempts
		                  + CASE WHEN EXCLUDED.status = 'completed' THEN 1 ELSE 0 END,
		   completed_at = COALESCE(activity_progress.completed_at, EXCLUDED.completed_at),
		   updated_at   = now()
		 RETURNING `+recordColumns,
		in.UserID,
		string(in.ActivityType),
		in.ActivityID,
		in.Grade,
		nullIfEmpty(in.TopicID),
		nullIfEmpty(in.Difficulty),
		string(in.Status),
		in.Score,
		in.MaxScore,
		in.TimeSpent,
	)
	r, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("upsert activity: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM activity_progress
		 WHERE user_id = $1
		 ORDER BY updated_at DESC, seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Users(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM activity_progress ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	r, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+`
		 FROM activity_progress
		 WHERE user_id = $1 AND activity_type = $2 AND activity_id = $3`,
		key.UserID, string(key.ActivityType), key.ActivityID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s/%s: %w", key.ActivityType, key.ActivityID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get activity: %w", err)
	}
	return r, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r                    Record
		activityType, status string
		topicID, difficulty  *string
	)
	if err := row.Scan(
		&r.ID,
		&r.UserID,
		&activityType,
		&r.ActivityID,
		&r.Grade,
		&topicID,
		&difficulty,
		&status,
		&r.Score,
		&r.MaxScore,
		&r.TimeSpent,
		&r.Attempts,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.CompletedAt,
	); err != nil {
		return Record{}, err
	}
	r.ActivityType = ActivityType(activityType)
	r.Status = Status(status)
	if topicID != nil {
		r.TopicID = *topicID
	}
	if difficulty != nil {
		r.Difficulty = *difficulty
	}
	return r, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
