// Package learning drives a learner through quizzes, lessons, missions and
// problems, and turns each step into an activity write for the tracker.
package learning

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

var (
	// ErrNoSelection is returned by Next when no option has been chosen.
	ErrNoSelection = errors.New("no answer selected")
	// ErrFinished is returned when a completed run is stepped again.
	ErrFinished = errors.New("quiz already finished")
	// ErrInvalidOption is returned for an option index outside the question.
	ErrInvalidOption = errors.New("option out of range")
)

// Result is the outcome of a finished quiz.
type Result struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Score   int `json:"score"`
}

// Message returns the encouragement shown for the result.
func (r Result) Message() string {
	switch {
	case r.Score >= 90:
		return "Outstanding! You're an AI expert!"
	case r.Score >= 70:
		return "Great job! You really understand AI!"
	case r.Score >= 50:
		return "Good work! Keep learning!"
	default:
		return "Keep studying! You'll get better!"
	}
}

// QuizRun steps through a quiz one question at a time.
type QuizRun struct {
	quiz     curriculum.Quiz
	current  int
	selected int
	answers  []int
	result   *Result
}

// NewQuizRun starts a run at the first question.
func NewQuizRun(q curriculum.Quiz) *QuizRun {
	r := &QuizRun{quiz: q}
	r.Restart()
	return r
}

// Question returns the current question and its zero-based index.
func (r *QuizRun) Question() (curriculum.Question, int) {
	if r.current >= len(r.quiz.Questions) {
		return curriculum.Question{}, r.current
	}
	return r.quiz.Questions[r.current], r.current
}

// Select picks an option for the current question. It can be changed until
// Next is called.
func (r *QuizRun) Select(option int) error {
	if r.result != nil {
		return ErrFinished
	}
	q, _ := r.Question()
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("select %d: %w", option, ErrInvalidOption)
	}
	r.selected = option
	return nil
}

// Next locks in the selection and advances. It returns true when the last
// question has been answered.
func (r *QuizRun) Next() (bool, error) {
	if r.result != nil {
		return true, ErrFinished
	}
	if r.selected < 0 {
		return false, ErrNoSelection
	}
	r.answers = append(r.answers, r.selected)
	r.selected = -1

	if r.current < len(r.quiz.Questions)-1 {
		r.current++
		return false, nil
	}

	correct := 0
	for i, a := range r.answers {
		if a == r.quiz.Questions[i].CorrectAnswer {
			correct++
		}
	}
	r.result = &Result{
		Correct: correct,
		Total:   len(r.quiz.Questions),
		Score:   score(correct, len(r.quiz.Questions)),
	}
	return true, nil
}

// Restart clears all answers and returns to the first question.
func (r *QuizRun) Restart() {
	r.current = 0
	r.selected = -1
	r.answers = r.answers[:0]
	r.result = nil
}

// Result returns the outcome once the run has finished.
func (r *QuizRun) Result() (Result, bool) {
	if r.result == nil {
		return Result{}, false
	}
	return *r.result, true
}

// Submit runs a whole quiz from a slice of chosen options.
func Submit(q curriculum.Quiz, answers []int) (Result, error) {
	if len(q.Questions) == 0 {
		return Result{}, fmt.Errorf("quiz %d-%s has no questions", q.Grade, q.Difficulty)
	}
	if len(answers) != len(q.Questions) {
		return Result{}, fmt.Errorf("got %d answers for %d questions", len(answers), len(q.Questions))
	}

	run := NewQuizRun(q)
	for i, a := range answers {
		if err := run.Select(a); err != nil {
			return Result{}, fmt.Errorf("question %d: %w", i+1, err)
		}
		if _, err := run.Next(); err != nil {
			return Result{}, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	res, _ := run.Result()
	return res, nil
}

// QuizActivity is the tracker write for a finished quiz.
func QuizActivity(q curriculum.Quiz, res Result, timeSpent int) tracker.RecordRequest {
	grade := q.Grade
	return tracker.RecordRequest{
		ActivityType: string(progress.ActivityQuiz),
		ActivityID:   QuizActivityID(q.Grade, q.Difficulty),
		Grade:        &grade,
		Difficulty:   q.Difficulty,
		Status:       string(progress.StatusCompleted),
		Score:        res.Score,
		MaxScore:     progress.DefaultMaxScore,
		TimeSpent:    timeSpent,
	}
}

// QuizActivityID is "<grade>-<difficulty>".
func QuizActivityID(grade int, difficulty string) string {
	return strconv.Itoa(grade) + "-" + difficulty
}

func score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
