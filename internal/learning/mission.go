package learning

import (
	"fmt"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

// MissionStatus maps a mission's percent progress to an activity status.
func MissionStatus(pct int) progress.Status {
	switch {
	case pct >= 100:
		return progress.StatusCompleted
	case pct > 0:
		return progress.StatusInProgress
	default:
		return progress.StatusStarted
	}
}

// MissionActivity is the tracker write for a mission at pct percent.
func MissionActivity(m curriculum.Mission, pct int) (tracker.RecordRequest, error) {
	if pct < 0 || pct > 100 {
		return tracker.RecordRequest{}, fmt.Errorf("%w: mission progress %d outside 0..100", tracker.ErrInvalidActivity, pct)
	}
	return tracker.RecordRequest{
		ActivityType: string(progress.ActivityMission),
		ActivityID:   m.ID,
		Status:       string(MissionStatus(pct)),
		Score:        pct,
		MaxScore:     progress.DefaultMaxScore,
	}, nil
}

// ProblemActivity is the tracker write for a graded problem answer.
func ProblemActivity(p curriculum.Problem, score, timeSpent int) tracker.RecordRequest {
	grade := p.Grade
	return tracker.RecordRequest{
		ActivityType: string(progress.ActivityProblem),
		ActivityID:   p.ID,
		Grade:        &grade,
		Difficulty:   p.Difficulty,
		Status:       string(progress.StatusCompleted),
		Score:        score,
		MaxScore:     progress.DefaultMaxScore,
		TimeSpent:    timeSpent,
	}
}
