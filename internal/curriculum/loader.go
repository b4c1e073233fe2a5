// Package curriculum loads course content (lessons, quizzes, missions and
// SDG problems) from YAML files.
package curriculum

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when requested content does not exist.
var ErrNotFound = errors.New("content not found")

type quizKey struct {
	grade      int
	difficulty string
}

// Loader loads and caches course content from the filesystem.
type Loader struct {
	rootDir  string
	lessons  map[int]GradeLessons
	quizzes  map[quizKey]Quiz
	missions []Mission
	problems map[string]Problem
	mu       sync.RWMutex
}

// NewLoader creates a new loader and loads everything under rootDir. Files
// that fail to parse or validate are skipped with a warning.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:  rootDir,
		lessons:  make(map[int]GradeLessons),
		quizzes:  make(map[quizKey]Quiz),
		problems: make(map[string]Problem),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded",
		"grades", len(l.lessons),
		"quizzes", len(l.quizzes),
		"missions", len(l.missions),
		"problems", len(l.problems),
	)
	return l, nil
}

// Lessons returns the topics for a grade.
func (l *Loader) Lessons(grade int) (GradeLessons, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	gl, ok := l.lessons[grade]
	if !ok {
		return GradeLessons{}, fmt.Errorf("lessons for grade %d: %w", grade, ErrNotFound)
	}
	return gl, nil
}

// Lesson returns one lesson with its topic.
func (l *Loader) Lesson(grade, topicID, lessonID int) (Topic, Lesson, error) {
	gl, err := l.Lessons(grade)
	if err != nil {
		return Topic{}, Lesson{}, err
	}
	for _, t := range gl.Topics {
		if t.ID != topicID {
			continue
		}
		for _, ls := range t.Lessons {
			if ls.ID == lessonID {
				return t, ls, nil
			}
		}
	}
	return Topic{}, Lesson{}, fmt.Errorf("lesson %d/%d in grade %d: %w", topicID, lessonID, grade, ErrNotFound)
}

// Quiz returns the quiz for a grade and difficulty. Difficulty matching
// ignores case.
func (l *Loader) Quiz(grade int, difficulty string) (Quiz, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	q, ok := l.quizzes[quizKey{grade: grade, difficulty: strings.ToLower(difficulty)}]
	if !ok {
		return Quiz{}, fmt.Errorf("quiz %d-%s: %w", grade, difficulty, ErrNotFound)
	}
	return q, nil
}

// Quizzes returns a grade's quizzes ordered Easy, Medium, Hard.
func (l *Loader) Quizzes(grade int) []Quiz {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Quiz
	for _, d := range Difficulties {
		if q, ok := l.quizzes[quizKey{grade: grade, difficulty: strings.ToLower(d)}]; ok {
			out = append(out, q)
		}
	}
	return out
}

// Mission returns a mission by ID.
func (l *Loader) Mission(id string) (Mission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.missions {
		if m.ID == id {
			return m, nil
		}
	}
	return Mission{}, fmt.Errorf("mission %s: %w", id, ErrNotFound)
}

// Missions returns every mission in file order.
func (l *Loader) Missions() []Mission {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.missions)
}

// Problem returns an SDG problem by ID.
func (l *Loader) Problem(id string) (Problem, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.problems[id]
	if !ok {
		return Problem{}, fmt.Errorf("problem %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Problems returns a grade's problems ordered by SDG goal, then ID.
func (l *Loader) Problems(grade int) []Problem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Problem
	for _, p := range l.problems {
		if p.Grade == grade {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Problem) int {
		if c := cmp.Compare(a.SDGGoal, b.SDGGoal); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (l *Loader) loadAll() error {
	if _, err := os.Stat(l.rootDir); err != nil {
		return err
	}
	return filepath.WalkDir(l.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadFile(path)
		}
		return nil
	})
}

func (l *Loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("skipping invalid content YAML", "path", path, "error", err)
		return nil
	}
	if err := doc.validate(); err != nil {
		slog.Warn("skipping invalid content", "path", path, "error", err)
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch doc.Kind {
	case KindLessons:
		gl := l.lessons[doc.Grade]
		gl.Grade = doc.Grade
		gl.Topics = append(gl.Topics, doc.Topics...)
		slices.SortStableFunc(gl.Topics, func(a, b Topic) int { return cmp.Compare(a.ID, b.ID) })
		l.lessons[doc.Grade] = gl
	case KindQuiz:
		l.quizzes[quizKey{grade: doc.Grade, difficulty: strings.ToLower(doc.Difficulty)}] = Quiz{
			Grade:      doc.Grade,
			Difficulty: doc.Difficulty,
			Title:      doc.Title,
			Questions:  doc.Questions,
		}
	case KindMissions:
		l.missions = append(l.missions, doc.Missions...)
	case KindProblems:
		for _, p := range doc.Problems {
			l.problems[p.ID] = p
		}
	default:
		slog.Debug("ignoring YAML without a content kind", "path", path)
	}
	return nil
}

func validGrade(g int) bool { return g >= 6 && g <= 10 }

func (d document) validate() error {
	switch d.Kind {
	case KindLessons:
		if !validGrade(d.Grade) {
			return fmt.Errorf("grade %d out of range", d.Grade)
		}
	case KindQuiz:
		if !validGrade(d.Grade) {
			return fmt.Errorf("grade %d out of range", d.Grade)
		}
		if !slices.ContainsFunc(Difficulties, func(s string) bool { return strings.EqualFold(s, d.Difficulty) }) {
			return fmt.Errorf("unknown difficulty %q", d.Difficulty)
		}
		if len(d.Questions) == 0 {
			return fmt.Errorf("quiz has no questions")
		}
		return validateQuestions(d.Questions)
	case KindMissions:
		for _, m := range d.Missions {
			if m.ID == "" {
				return fmt.Errorf("mission without id")
			}
		}
	case KindProblems:
		for _, p := range d.Problems {
			if p.ID == "" {
				return fmt.Errorf("problem without id")
			}
			if !validGrade(p.Grade) {
				return fmt.Errorf("problem %s: grade %d out of range", p.ID, p.Grade)
			}
			if err := validateQuestions(slices.DeleteFunc(slices.Clone(p.Questions), func(q Question) bool {
				return len(q.Options) == 0
			})); err != nil {
				return fmt.Errorf("problem %s: %w", p.ID, err)
			}
		}
	}
	return nil
}

func validateQuestions(qs []Question) error {
	for _, q := range qs {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("question %d: correct_answer %d out of range", q.ID, q.CorrectAnswer)
		}
	}
	return nil
}
