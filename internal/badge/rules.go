// Package badge decides which achievements a learner has earned and persists
// them at most once per user. Awards are permanent: a badge is never revoked
// when later statistics stop qualifying for it.
package badge

import (
	"time"

	"github.com/p-n-ai/pai-literacy/internal/progress"
)

// Definition is a badge as shown to the learner.
type Definition struct {
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Badge is a persisted award.
type Badge struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Rule pairs a badge with its eligibility test.
type Rule struct {
	Badge    Definition
	Eligible func(progress.Stats) bool
}

// Rules is the fixed rule table, evaluated in order. Every rule is
// independent of the others.
var Rules = []Rule{
	{
		Badge:    Definition{Name: "First Steps", Icon: "🎯", Description: "Completed your first lesson"},
		Eligible: func(s progress.Stats) bool { return s.Lessons.Completed >= 1 && s.Lessons.Completed < 5 },
	},
	{
		Badge:    Definition{Name: "Knowledge Seeker", Icon: "📚", Description: "Completed 5 lessons"},
		Eligible: func(s progress.Stats) bool { return s.Lessons.Completed >= 5 },
	},
	{
		Badge:    Definition{Name: "Learning Master", Icon: "🎓", Description: "Completed 10 lessons"},
		Eligible: func(s progress.Stats) bool { return s.Lessons.Completed >= 10 },
	},
	{
		Badge:    Definition{Name: "Quiz Taker", Icon: "✅", Description: "Completed your first quiz"},
		Eligible: func(s progress.Stats) bool { return s.Quizzes.Completed >= 1 && s.Quizzes.Completed < 5 },
	},
	{
		Badge:    Definition{Name: "Brain Power", Icon: "🧠", Description: "Completed 5 quizzes"},
		Eligible: func(s progress.Stats) bool { return s.Quizzes.Completed >= 5 },
	},
	{
		Badge:    Definition{Name: "High Achiever", Icon: "⭐", Description: "Average quiz score of 80% or higher"},
		Eligible: func(s progress.Stats) bool { return s.Quizzes.AverageScore >= 80 && s.Quizzes.Completed >= 3 },
	},
	{
		Badge:    Definition{Name: "Problem Solver", Icon: "💡", Description: "Solved your first SDG problem"},
		Eligible: func(s progress.Stats) bool { return s.Problems.Completed >= 1 },
	},
	{
		Badge:    Definition{Name: "SDG Champion", Icon: "🌍", Description: "Solved 5 SDG problems"},
		Eligible: func(s progress.Stats) bool { return s.Problems.Completed >= 5 },
	},
	{
		Badge:    Definition{Name: "Mission Starter", Icon: "🚀", Description: "Completed your first mission"},
		Eligible: func(s progress.Stats) bool { return s.Missions.Completed >= 1 },
	},
	{
		Badge:    Definition{Name: "Mission Expert", Icon: "🏆", Description: "Completed 3 missions"},
		Eligible: func(s progress.Stats) bool { return s.Missions.Completed >= 3 },
	},
}

// Eligible returns the badges the stats currently qualify for, in rule order.
func Eligible(stats progress.Stats) []Definition {
	var out []Definition
	for _, r := range Rules {
		if r.Eligible(stats) {
			out = append(out, r.Badge)
		}
	}
	return out
}

// Lookup returns the definition for a badge name.
func Lookup(name string) (Definition, bool) {
	for _, r := range Rules {
		if r.Badge.Name == name {
			return r.Badge, true
		}
	}
	return Definition{}, false
}
