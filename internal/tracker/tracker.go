// Package tracker records learner activity and returns fresh statistics.
// Every call reloads the full activity log and re-runs aggregation and badge
// reconciliation; nothing derived is cached.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-literacy/internal/badge"
	"github.com/p-n-ai/pai-literacy/internal/platform/metrics"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

var (
	// ErrInvalidActivity is returned for writes with an unknown type or status,
	// or with out-of-range fields.
	ErrInvalidActivity = errors.New("invalid activity")

	// ErrLogUnavailable is returned when the activity log cannot be read or
	// written. No statistics are computed in that case.
	ErrLogUnavailable = errors.New("activity log unavailable")
)

// Config holds dependencies for the tracker service.
type Config struct {
	Activities progress.Store
	Badges     badge.Store
	Metrics    *metrics.Metrics // optional
}

// Service is the activity recorder.
type Service struct {
	activities progress.Store
	badges     badge.Store
	metrics    *metrics.Metrics
}

// NewService creates a tracker. Nil stores fall back to in-memory ones.
func NewService(cfg Config) *Service {
	activities := cfg.Activities
	if activities == nil {
		activities = progress.NewMemoryStore()
	}
	badges := cfg.Badges
	if badges == nil {
		badges = badge.NewMemoryStore()
	}
	return &Service{
		activities: activities,
		badges:     badges,
		metrics:    cfg.Metrics,
	}
}

// RecordRequest is a single activity write.
type RecordRequest struct {
	ActivityType string `json:"activity_type"`
	ActivityID   string `json:"activity_id"`
	Grade        *int   `json:"grade,omitempty"`
	TopicID      string `json:"topic_id,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	Status       string `json:"status,omitempty"`
	Score        int    `json:"score,omitempty"`
	MaxScore     int    `json:"max_score,omitempty"`
	TimeSpent    int    `json:"time_spent,omitempty"`
}

// Snapshot is everything the progress views need, derived from one read of
// the activity log.
type Snapshot struct {
	Stats     progress.Stats           `json:"stats"`
	Grades    []progress.GradeProgress `json:"grades"`
	Recent    []progress.Record        `json:"recent"`
	Badges    []badge.Badge            `json:"badges"`
	NewBadges []badge.Badge            `json:"new_badges"`
	Record    *progress.Record         `json:"record,omitempty"`
}

// Validate checks a request without touching storage.
func (r RecordRequest) Validate() error {
	if !progress.ActivityType(r.ActivityType).Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrInvalidActivity, r.ActivityType)
	}
	if r.ActivityID == "" {
		return fmt.Errorf("%w: activity_id is required", ErrInvalidActivity)
	}
	if r.Status != "" && !progress.Status(r.Status).Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidActivity, r.Status)
	}
	if r.Grade != nil && (*r.Grade < progress.MinGrade || *r.Grade > progress.MaxGrade) {
		return fmt.Errorf("%w: grade %d out of range", ErrInvalidActivity, *r.Grade)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"score", r.Score},
		{"max_score", r.MaxScore},
		{"time_spent", r.TimeSpent},
	} {
		if f.value < 0 || f.value > progress.MaxValue {
			return fmt.Errorf("%w: %s %d out of range 0..%d", ErrInvalidActivity, f.name, f.value, progress.MaxValue)
		}
	}
	return nil
}

func (r RecordRequest) input(userID string) progress.RecordInput {
	return progress.RecordInput{
		Key: progress.Key{
			UserID:       userID,
			ActivityType: progress.ActivityType(r.ActivityType),
			ActivityID:   r.ActivityID,
		},
		Grade:      r.Grade,
		TopicID:    r.TopicID,
		Difficulty: r.Difficulty,
		Status:     progress.Status(r.Status),
		Score:      r.Score,
		MaxScore:   r.MaxScore,
		TimeSpent:  r.TimeSpent,
	}
}

// Record upserts one activity and returns a snapshot computed after the write.
func (s *Service) Record(ctx context.Context, userID string, req RecordRequest) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, fmt.Errorf("%w: user id is required", ErrInvalidActivity)
	}
	if err := req.Validate(); err != nil {
		return Snapshot{}, err
	}

	rec, err := s.activities.Upsert(ctx, req.input(userID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	if s.metrics != nil {
		s.metrics.ActivitiesRecorded.WithLabelValues(string(rec.ActivityType), string(rec.Status)).Inc()
	}
	slog.Info("activity recorded",
		"user_id", userID,
		"activity_type", rec.ActivityType,
		"activity_id", rec.ActivityID,
		"status", rec.Status,
		"attempts", rec.Attempts,
	)

	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Record = &rec
	return snap, nil
}

// Snapshot loads the user's log and derives stats, the grade breakdown, the
// recent view and badges. Newly eligible badges are awarded on the way.
func (s *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	records, err := s.Log(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	stats := progress.Aggregate(records)
	snap := Snapshot{
		Stats:  stats,
		Grades: progress.GradeBreakdown(records),
		Recent: progress.Recent(records, progress.RecentLimit),
	}

	awarded, err := badge.Reconcile(ctx, s.badges, userID, stats)
	if err != nil {
		slog.Warn("badge reconciliation failed", "user_id", userID, "error", err)
	}
	snap.NewBadges = awarded
	if s.metrics != nil {
		for _, b := range awarded {
			s.metrics.BadgesAwarded.WithLabelValues(b.Name).Inc()
		}
	}

	held, err := s.badges.List(ctx, userID)
	if err != nil {
		slog.Warn("listing badges failed", "user_id", userID, "error", err)
	}
	snap.Badges = held
	return snap, nil
}

// Log returns the user's raw activity log, newest first.
func (s *Service) Log(ctx context.Context, userID string) ([]progress.Record, error) {
	records, err := s.activities.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	return records, nil
}

// Grade returns the zero-filled breakdown row for one grade.
func (s *Service) Grade(ctx context.Context, userID string, grade int) (progress.GradeProgress, error) {
	if grade < progress.MinGrade || grade > progress.MaxGrade {
		return progress.GradeProgress{}, fmt.Errorf("%w: grade %d out of range", ErrInvalidActivity, grade)
	}
	records, err := s.Log(ctx, userID)
	if err != nil {
		return progress.GradeProgress{}, err
	}
	return progress.GradeRow(records, grade), nil
}

// Activity returns a single record.
func (s *Service) Activity(ctx context.Context, userID string, activityType progress.ActivityType, activityID string) (progress.Record, error) {
	if !activityType.Valid() {
		return progress.Record{}, fmt.Errorf("%w: unknown activity type %q", ErrInvalidActivity, activityType)
	}
	rec, err := s.activities.Get(ctx, progress.Key{UserID: userID, ActivityType: activityType, ActivityID: activityID})
	if errors.Is(err, progress.ErrNotFound) {
		return progress.Record{}, err
	}
	if err != nil {
		return progress.Record{}, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	return rec, nil
}

// Learners lists every user with recorded activity.
func (s *Service) Learners(ctx context.Context) ([]string, error) {
	users, err := s.activities.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLogUnavailable, err)
	}
	return users, nil
}

// AllRecords returns the log for each of userIDs. Used by the admin export.
func (s *Service) AllRecords(ctx context.Context, userIDs []string) ([]progress.Record, error) {
	var out []progress.Record
	for _, id := range userIDs {
		records, err := s.Log(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}
