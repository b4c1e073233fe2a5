package learning

import (
	"fmt"
	"strconv"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

// Completion identifies a finished lesson.
type Completion struct {
	Grade      int    `json:"grade"`
	TopicID    string `json:"topic_id"`
	ActivityID string `json:"activity_id"`
}

// Activity is the tracker write for the completion. Lessons always score
// full marks.
func (c Completion) Activity() tracker.RecordRequest {
	grade := c.Grade
	return tracker.RecordRequest{
		ActivityType: string(progress.ActivityLesson),
		ActivityID:   c.ActivityID,
		Grade:        &grade,
		TopicID:      c.TopicID,
		Status:       string(progress.StatusCompleted),
		Score:        progress.DefaultMaxScore,
		MaxScore:     progress.DefaultMaxScore,
	}
}

// LessonCursor walks every lesson of a grade in topic order.
type LessonCursor struct {
	grade     curriculum.GradeLessons
	topic     int
	lesson    int
	completed map[string]bool
}

// NewLessonCursor positions a cursor on the first lesson of the grade.
func NewLessonCursor(gl curriculum.GradeLessons) (*LessonCursor, error) {
	if len(gl.Topics) == 0 {
		return nil, fmt.Errorf("grade %d has no topics", gl.Grade)
	}
	for _, t := range gl.Topics {
		if len(t.Lessons) == 0 {
			return nil, fmt.Errorf("grade %d topic %d has no lessons", gl.Grade, t.ID)
		}
	}
	return &LessonCursor{grade: gl, completed: make(map[string]bool)}, nil
}

// Current returns the topic and lesson under the cursor.
func (c *LessonCursor) Current() (curriculum.Topic, curriculum.Lesson) {
	t := c.grade.Topics[c.topic]
	return t, t.Lessons[c.lesson]
}

// CanNext reports whether there is a lesson after the current one.
func (c *LessonCursor) CanNext() bool {
	return c.topic < len(c.grade.Topics)-1 || c.lesson < len(c.grade.Topics[c.topic].Lessons)-1
}

// CanPrev reports whether there is a lesson before the current one.
func (c *LessonCursor) CanPrev() bool {
	return c.topic > 0 || c.lesson > 0
}

// Complete marks the current lesson done.
func (c *LessonCursor) Complete() Completion {
	t, l := c.Current()
	c.completed[lessonKey(c.topic, c.lesson)] = true
	return CompletionFor(c.grade.Grade, t, l)
}

// Next completes the current lesson and moves to the following one. On the
// final lesson the cursor stays put.
func (c *LessonCursor) Next() Completion {
	done := c.Complete()
	switch {
	case c.lesson < len(c.grade.Topics[c.topic].Lessons)-1:
		c.lesson++
	case c.topic < len(c.grade.Topics)-1:
		c.topic++
		c.lesson = 0
	}
	return done
}

// Prev moves back one lesson, crossing into the previous topic's last lesson.
func (c *LessonCursor) Prev() {
	switch {
	case c.lesson > 0:
		c.lesson--
	case c.topic > 0:
		c.topic--
		c.lesson = len(c.grade.Topics[c.topic].Lessons) - 1
	}
}

// IsCompleted reports whether the lesson at the given indexes was completed
// through this cursor.
func (c *LessonCursor) IsCompleted(topicIdx, lessonIdx int) bool {
	return c.completed[lessonKey(topicIdx, lessonIdx)]
}

// CompletionFor builds the completion for a lesson looked up directly.
func CompletionFor(grade int, t curriculum.Topic, l curriculum.Lesson) Completion {
	return Completion{
		Grade:      grade,
		TopicID:    strconv.Itoa(t.ID),
		ActivityID: LessonActivityID(t.Title, l.Title),
	}
}

// LessonActivityID is "<topic title>-<lesson title>".
func LessonActivityID(topicTitle, lessonTitle string) string {
	return topicTitle + "-" + lessonTitle
}

func lessonKey(topic, lesson int) string {
	return strconv.Itoa(topic) + "-" + strconv.Itoa(lesson)
}
