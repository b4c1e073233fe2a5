package progress

import (
	"math"
	"slices"
)

// RecentLimit is the default length of the recent-activities view.
const RecentLimit = 5

// ProgressCounts summarises lessons and missions.
type ProgressCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
}

// ScoredCounts summarises quizzes and problems.
type ScoredCounts struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	AverageScore float64 `json:"average_score"`
}

// OverallStats sums every known activity type.
type OverallStats struct {
	TotalActivities     int `json:"total_activities"`
	CompletedActivities int `json:"completed_activities"`
	TotalTimeSpent      int `json:"total_time_spent"`
	CompletionRate      int `json:"completion_rate"`
}

// Stats is the aggregate view of an activity log.
type Stats struct {
	Lessons  ProgressCounts `json:"lessons"`
	Quizzes  ScoredCounts   `json:"quizzes"`
	Missions ProgressCounts `json:"missions"`
	Problems ScoredCounts   `json:"problems"`
	Overall  OverallStats   `json:"overall"`
}

// Progress is a completion summary for one slice of the log.
type Progress struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Percentage   int `json:"percentage"`
	AverageScore int `json:"average_score"`
}

// TypeBreakdown holds one Progress per activity type.
type TypeBreakdown struct {
	Lessons  Progress `json:"lessons"`
	Quizzes  Progress `json:"quizzes"`
	Missions Progress `json:"missions"`
	Problems Progress `json:"problems"`
}

// Of returns the entry for t. Unknown types get a zero value.
func (b TypeBreakdown) Of(t ActivityType) Progress {
	switch t {
	case ActivityLesson:
		return b.Lessons
	case ActivityQuiz:
		return b.Quizzes
	case ActivityMission:
		return b.Missions
	case ActivityProblem:
		return b.Problems
	}
	return Progress{}
}

// GradeProgress is one row of the per-grade breakdown.
type GradeProgress struct {
	Grade      int           `json:"grade"`
	Total      int           `json:"total"`
	Completed  int           `json:"completed"`
	Percentage int           `json:"percentage"`
	Types      TypeBreakdown `json:"types"`
}

type tally struct {
	total, completed, inProgress int
	scoreSum                     float64
}

func (t *tally) add(r Record) {
	t.total++
	t.scoreSum += float64(r.Score)
	switch r.Status {
	case StatusCompleted:
		t.completed++
	case StatusInProgress:
		t.inProgress++
	}
}

func (t tally) average() float64 {
	if t.total == 0 {
		return 0
	}
	return t.scoreSum / float64(t.total)
}

// Aggregate folds records into per-type and overall statistics. Records of
// an unknown type are ignored entirely; unknown statuses count toward totals
// only. The result does not depend on the order of records.
func Aggregate(records []Record) Stats {
	byType := make(map[ActivityType]*tally, len(ActivityTypes))
	for _, t := range ActivityTypes {
		byType[t] = &tally{}
	}

	var overall OverallStats
	for _, r := range records {
		t, ok := byType[r.ActivityType]
		if !ok {
			continue
		}
		t.add(r)
		overall.TotalActivities++
		overall.TotalTimeSpent += r.TimeSpent
		if r.Status == StatusCompleted {
			overall.CompletedActivities++
		}
	}
	overall.CompletionRate = percent(overall.CompletedActivities, overall.TotalActivities)

	return Stats{
		Lessons:  progressCounts(*byType[ActivityLesson]),
		Quizzes:  scoredCounts(*byType[ActivityQuiz]),
		Missions: progressCounts(*byType[ActivityMission]),
		Problems: scoredCounts(*byType[ActivityProblem]),
		Overall:  overall,
	}
}

func progressCounts(t tally) ProgressCounts {
	return ProgressCounts{Total: t.total, Completed: t.completed, InProgress: t.inProgress}
}

func scoredCounts(t tally) ScoredCounts {
	return ScoredCounts{Total: t.total, Completed: t.completed, AverageScore: t.average()}
}

// ForGrade aggregates only the records tagged with grade.
func ForGrade(records []Record, grade int) Stats {
	return Aggregate(filterGrade(records, grade))
}

// GradeBreakdown returns one row per grade in Grades, in order. Grades with
// no records are present and zero-filled.
func GradeBreakdown(records []Record) []GradeProgress {
	rows := make([]GradeProgress, 0, len(Grades))
	for _, g := range Grades {
		rows = append(rows, gradeRow(filterGrade(records, g), g))
	}
	return rows
}

// GradeRow returns the breakdown row for a single grade.
func GradeRow(records []Record, grade int) GradeProgress {
	return gradeRow(filterGrade(records, grade), grade)
}

func gradeRow(inGrade []Record, grade int) GradeProgress {
	p := GradeProgressFor(inGrade, grade)
	return GradeProgress{
		Grade:      grade,
		Total:      p.Total,
		Completed:  p.Completed,
		Percentage: p.Percentage,
		Types: TypeBreakdown{
			Lessons:  TypeProgress(inGrade, ActivityLesson),
			Quizzes:  TypeProgress(inGrade, ActivityQuiz),
			Missions: TypeProgress(inGrade, ActivityMission),
			Problems: TypeProgress(inGrade, ActivityProblem),
		},
	}
}

// GradeProgressFor reports total, completed and percentage for one grade.
func GradeProgressFor(records []Record, grade int) Progress {
	var t tally
	for _, r := range records {
		if r.HasGrade(grade) && r.ActivityType.Valid() {
			t.add(r)
		}
	}
	return Progress{
		Total:      t.total,
		Completed:  t.completed,
		Percentage: percent(t.completed, t.total),
	}
}

// TypeProgress reports progress for one activity type, with the mean score
// rounded to an integer.
func TypeProgress(records []Record, activityType ActivityType) Progress {
	var t tally
	for _, r := range records {
		if r.ActivityType == activityType {
			t.add(r)
		}
	}
	return Progress{
		Total:        t.total,
		Completed:    t.completed,
		Percentage:   percent(t.completed, t.total),
		AverageScore: int(math.Round(t.average())),
	}
}

// Recent returns up to n records ordered by UpdatedAt, newest first. Records
// with equal timestamps keep their relative input order. n <= 0 means
// RecentLimit. The input slice is not modified, and the result is never nil.
func Recent(records []Record, n int) []Record {
	if n <= 0 {
		n = RecentLimit
	}
	sorted := append(make([]Record, 0, len(records)), records...)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Find returns the record for (activityType, activityID), if any.
func Find(records []Record, activityType ActivityType, activityID string) (Record, bool) {
	for _, r := range records {
		if r.ActivityType == activityType && r.ActivityID == activityID {
			return r, true
		}
	}
	return Record{}, false
}

func filterGrade(records []Record, grade int) []Record {
	var out []Record
	for _, r := range records {
		if r.HasGrade(grade) {
			out = append(out, r)
		}
	}
	return out
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
