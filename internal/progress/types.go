// Package progress models the per-user activity log and derives completion
// statistics from it. Aggregates are never stored: every read recomputes them
// from the full log.
package progress

import (
	"errors"
	"math"
	"time"
)

// ErrNotFound is returned when an activity record does not exist.
var ErrNotFound = errors.New("activity not found")

// ActivityType is the kind of learner work a record tracks.
type ActivityType string

const (
	ActivityLesson  ActivityType = "lesson"
	ActivityQuiz    ActivityType = "quiz"
	ActivityMission ActivityType = "mission"
	ActivityProblem ActivityType = "problem"
)

// ActivityTypes lists the closed set of activity types in display order.
var ActivityTypes = []ActivityType{ActivityLesson, ActivityQuiz, ActivityMission, ActivityProblem}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityLesson, ActivityQuiz, ActivityMission, ActivityProblem:
		return true
	}
	return false
}

// Status is where a learner is in an activity.
type Status string

const (
	StatusStarted    Status = "started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Grade levels the course covers.
const (
	MinGrade = 6
	MaxGrade = 10
)

// MaxValue bounds score, max_score and time_spent. It matches the INTEGER
// columns of the activity table.
const MaxValue = math.MaxInt32

// Grades is the fixed set of grades every per-grade view reports on.
var Grades = []int{6, 7, 8, 9, 10}

// DefaultMaxScore is used when a write leaves max_score unset.
const DefaultMaxScore = 100

// Key identifies a record. At most one record exists per key.
type Key struct {
	UserID       string       `json:"user_id"`
	ActivityType ActivityType `json:"activity_type"`
	ActivityID   string       `json:"activity_id"`
}

// Record is one row of a user's activity log.
type Record struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	ActivityType ActivityType `json:"activity_type"`
	ActivityID   string       `json:"activity_id"`
	Grade        *int         `json:"grade,omitempty"`
	TopicID      string       `json:"topic_id,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	Status       Status       `json:"status"`
	Score        int          `json:"score"`
	MaxScore     int          `json:"max_score"`
	TimeSpent    int          `json:"time_spent"` // seconds
	Attempts     int          `json:"attempts"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// Key returns the record's unique key.
func (r Record) Key() Key {
	return Key{UserID: r.UserID, ActivityType: r.ActivityType, ActivityID: r.ActivityID}
}

// HasGrade reports whether the record belongs to grade g.
func (r Record) HasGrade(g int) bool {
	return r.Grade != nil && *r.Grade == g
}

// RecordInput is a single upsert request. Grade, TopicID and Difficulty only take
// effect when the record is created.
type RecordInput struct {
	Key
	Grade      *int
	TopicID    string
	Difficulty string
	Status     Status
	Score      int
	MaxScore   int
	TimeSpent  int
}

// WithDefaults fills the documented defaults for unset fields.
func (in RecordInput) WithDefaults() RecordInput {
	if in.Status == "" {
		in.Status = StatusStarted
	}
	if in.MaxScore == 0 {
		in.MaxScore = DefaultMaxScore
	}
	return in
}
