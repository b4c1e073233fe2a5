package curriculum

// Kind tags what a content file holds.
type Kind string

const (
	KindLessons  Kind = "lessons"
	KindQuiz     Kind = "quiz"
	KindMissions Kind = "missions"
	KindProblems Kind = "problems"
)

// Quiz difficulties.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Difficulties lists quiz difficulties in ascending order.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Lesson is a single explanation card within a topic.
type Lesson struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Explanation string `yaml:"explanation" json:"explanation"`
	Example     string `yaml:"example" json:"example"`
}

// Topic groups ordered lessons.
type Topic struct {
	ID      int      `yaml:"id" json:"id"`
	Title   string   `yaml:"title" json:"title"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// GradeLessons is every topic taught in one grade.
type GradeLessons struct {
	Grade  int     `yaml:"grade" json:"grade"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Question is a multiple-choice question. CorrectAnswer indexes Options.
type Question struct {
	ID            int      `yaml:"id" json:"id"`
	Question      string   `yaml:"question" json:"question"`
	Options       []string `yaml:"options" json:"options"`
	CorrectAnswer int      `yaml:"correct_answer" json:"-"`
	Explanation   string   `yaml:"explanation" json:"explanation,omitempty"`
}

// Quiz is the question set for one (grade, difficulty).
type Quiz struct {
	Grade      int        `yaml:"grade" json:"grade"`
	Difficulty string     `yaml:"difficulty" json:"difficulty"`
	Title      string     `yaml:"title" json:"title"`
	Questions  []Question `yaml:"questions" json:"questions"`
}

// Mission is a multi-task SDG challenge.
type Mission struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Points      int      `yaml:"points" json:"points"`
	Tasks       []string `yaml:"tasks" json:"tasks"`
}

// Problem is an open-ended SDG problem answered in free text.
type Problem struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Grade       int        `yaml:"grade" json:"grade"`
	SDGGoal     int        `yaml:"sdg_goal" json:"sdg_goal"`
	SDGTitle    string     `yaml:"sdg_title" json:"sdg_title"`
	Difficulty  string     `yaml:"difficulty" json:"difficulty"`
	Points      int        `yaml:"points" json:"points"`
	Content     string     `yaml:"content" json:"content"`
	Questions   []Question `yaml:"questions" json:"questions,omitempty"`
}

// document is the on-disk shape shared by every content file.
type document struct {
	Kind       Kind       `yaml:"kind"`
	Grade      int        `yaml:"grade"`
	Difficulty string     `yaml:"difficulty"`
	Title      string     `yaml:"title"`
	Topics     []Topic    `yaml:"topics"`
	Questions  []Question `yaml:"questions"`
	Missions   []Mission  `yaml:"missions"`
	Problems   []Problem  `yaml:"problems"`
}
