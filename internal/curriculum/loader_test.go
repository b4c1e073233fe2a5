package curriculum_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/progress"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func setupTestContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, dir, "grade-6/lessons.yaml", `
kind: lessons
grade: 6
topics:
  - id: 2
    title: Robots in Daily Life
    lessons:
      - id: 1
        title: What is a Robot?
        explanation: Robots are machines that can sense, think, and act.
        example: Toy robots, vacuum robots.
  - id: 1
    title: What is AI?
    lessons:
      - id: 1
        title: Introduction to Intelligence
        explanation: Humans show intelligence by thinking, learning, and solving problems.
        example: Humans learn to ride a bicycle; AI learns to play chess.
      - id: 2
        title: What is AI?
        explanation: AI is when machines can do tasks that normally need human intelligence.
        example: Siri, Google Maps, YouTube recommendations.
`)
	writeFile(t, dir, "grade-6/quiz-easy.yaml", `
kind: quiz
grade: 6
difficulty: Easy
title: AI Basics - Easy
questions:
  - id: 1
    question: What does AI stand for?
    options: [Artificial Intelligence, Advanced Internet]
    correct_answer: 0
`)
	writeFile(t, dir, "grade-6/quiz-hard.yaml", `
kind: quiz
grade: 6
difficulty: Hard
title: AI Basics - Hard
questions:
  - id: 1
    question: Which is supervised learning?
    options: [Labelled examples, Random guessing]
    correct_answer: 0
`)
	writeFile(t, dir, "missions.yaml", `
kind: missions
missions:
  - id: "1"
    title: Quality Education with AI
    points: 300
    tasks: [Complete Grade 6 AI Basics, Study AI in Education]
  - id: "2"
    title: Good Health & AI Medicine
    points: 250
`)
	writeFile(t, dir, "problems.yaml", `
kind: problems
problems:
  - id: climate
    title: Sorting Waste with AI
    grade: 6
    sdg_goal: 13
    content: Explain how AI could sort recycling.
  - id: education
    title: An AI Study Buddy
    grade: 6
    sdg_goal: 4
    content: Describe an AI study buddy.
  - id: farming
    title: Smarter Farming
    grade: 8
    sdg_goal: 2
`)
	return dir
}

func TestLoader_Lessons(t *testing.T) {
	loader, err := curriculum.NewLoader(setupTestContent(t))
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	gl, err := loader.Lessons(6)
	if err != nil {
		t.Fatalf("Lessons(6) error = %v", err)
	}
	if len(gl.Topics) != 2 || gl.Topics[0].ID != 1 {
		t.Errorf("Topics = %+v, want 2 topics ordered by id", gl.Topics)
	}

	topic, lesson, err := loader.Lesson(6, 1, 2)
	if err != nil {
		t.Fatalf("Lesson() error = %v", err)
	}
	if topic.Title != "What is AI?" || lesson.Title != "What is AI?" {
		t.Errorf("Lesson() = %q/%q", topic.Title, lesson.Title)
	}

	if _, err := loader.Lessons(9); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Lessons(9) error = %v, want ErrNotFound", err)
	}
	if _, _, err := loader.Lesson(6, 1, 99); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Lesson(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLoader_Quiz(t *testing.T) {
	loader, err := curriculum.NewLoader(setupTestContent(t))
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	tests := []struct {
		name       string
		grade      int
		difficulty string
		wantErr    bool
	}{
		{"exact", 6, "Easy", false},
		{"case-insensitive", 6, "hard", false},
		{"missing-difficulty", 6, "Medium", true},
		{"missing-grade", 7, "Easy", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := loader.Quiz(tt.grade, tt.difficulty)
			if tt.wantErr {
				if !errors.Is(err, curriculum.ErrNotFound) {
					t.Errorf("Quiz() error = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Quiz() error = %v", err)
			}
			if len(q.Questions) != 1 {
				t.Errorf("Questions = %d, want 1", len(q.Questions))
			}
		})
	}

	quizzes := loader.Quizzes(6)
	if len(quizzes) != 2 || quizzes[0].Difficulty != "Easy" || quizzes[1].Difficulty != "Hard" {
		t.Errorf("Quizzes(6) = %+v, want Easy then Hard", quizzes)
	}
}

func TestLoader_MissionsAndProblems(t *testing.T) {
	loader, err := curriculum.NewLoader(setupTestContent(t))
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	if got := loader.Missions(); len(got) != 2 || got[0].ID != "1" {
		t.Errorf("Missions() = %+v", got)
	}
	m, err := loader.Mission("2")
	if err != nil || m.Points != 250 {
		t.Errorf("Mission(2) = %+v, %v", m, err)
	}
	if _, err := loader.Mission("9"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Mission(9) error = %v, want ErrNotFound", err)
	}

	problems := loader.Problems(6)
	if len(problems) != 2 || problems[0].ID != "education" || problems[1].ID != "climate" {
		t.Errorf("Problems(6) = %+v, want ordered by sdg_goal", problems)
	}
	if _, err := loader.Problem("farming"); err != nil {
		t.Errorf("Problem(farming) error = %v", err)
	}
}

func TestLoader_SkipsInvalidFiles(t *testing.T) {
	dir := setupTestContent(t)
	writeFile(t, dir, "broken.yaml", "kind: quiz\ngrade: [not an int\n")
	writeFile(t, dir, "grade-11/lessons.yaml", "kind: lessons\ngrade: 11\ntopics: []\n")
	writeFile(t, dir, "grade-7/quiz-bad.yaml", `
kind: quiz
grade: 7
difficulty: Easy
questions:
  - id: 1
    question: Out of range answer
    options: [a, b]
    correct_answer: 5
`)
	writeFile(t, dir, "notes.md", "# not content")

	loader, err := curriculum.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if _, err := loader.Lessons(11); err == nil {
		t.Error("grade 11 lessons should have been skipped")
	}
	if _, err := loader.Quiz(7, "Easy"); err == nil {
		t.Error("quiz with out-of-range answer should have been skipped")
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	loader, err := curriculum.NewLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	if len(loader.Missions()) != 0 {
		t.Error("Missions() should be empty")
	}
}

func TestLoader_MissingDir(t *testing.T) {
	if _, err := curriculum.NewLoader(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("NewLoader() should fail for a missing directory")
	}
}

func TestShippedContent(t *testing.T) {
	loader, err := curriculum.NewLoader(filepath.Join("..", "..", "content"))
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	for _, g := range progress.Grades {
		if _, err := loader.Lessons(g); err != nil {
			t.Errorf("Lessons(%d) error = %v", g, err)
		}
		if got := len(loader.Quizzes(g)); got != len(curriculum.Difficulties) {
			t.Errorf("Quizzes(%d) = %d, want %d", g, got, len(curriculum.Difficulties))
		}
	}
	if len(loader.Missions()) == 0 {
		t.Error("no missions shipped")
	}
}
