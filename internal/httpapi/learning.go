package httpapi

import (
	"fmt"
	"net/http"

	"github.com/p-n-ai/pai-literacy/internal/grading"
	"github.com/p-n-ai/pai-literacy/internal/learning"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

type quizSubmission struct {
	Answers   []int `json:"answers"`
	TimeSpent int   `json:"time_spent"`
}

type quizResponse struct {
	Result   learning.Result  `json:"result"`
	Message  string           `json:"message"`
	Snapshot tracker.Snapshot `json:"snapshot"`
}

func (s *Server) handleQuizSubmission(w http.ResponseWriter, r *http.Request, userID string) {
	grade, err := pathInt(r, "grade")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := s.content.Quiz(grade, r.PathValue("difficulty"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var sub quizSubmission
	if err := decode(w, r, s.schemas.quizSubmission, &sub); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := learning.Submit(quiz, sub.Answers)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	snap, err := s.tracker.Record(r.Context(), userID, learning.QuizActivity(quiz, res, sub.TimeSpent))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Result: res, Message: res.Message(), Snapshot: snap})
}

type lessonResponse struct {
	Completion learning.Completion `json:"completion"`
	Snapshot   tracker.Snapshot    `json:"snapshot"`
}

func (s *Server) handleLessonComplete(w http.ResponseWriter, r *http.Request, userID string) {
	var ids [3]int
	for i, name := range []string{"grade", "topicID", "lessonID"} {
		v, err := pathInt(r, name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ids[i] = v
	}

	topic, lesson, err := s.content.Lesson(ids[0], ids[1], ids[2])
	if err != nil {
		writeError(w, r, err)
		return
	}
	done := learning.CompletionFor(ids[0], topic, lesson)

	snap, err := s.tracker.Record(r.Context(), userID, done.Activity())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessonResponse{Completion: done, Snapshot: snap})
}

type missionProgress struct {
	Progress int `json:"progress"`
}

func (s *Server) handleMissionProgress(w http.ResponseWriter, r *http.Request, userID string) {
	mission, err := s.content.Mission(r.PathValue("missionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body missionProgress
	if err := decode(w, r, s.schemas.missionProgress, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := learning.MissionActivity(mission, body.Progress)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.tracker.Record(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type problemAnswer struct {
	Answer    string `json:"answer"`
	TimeSpent int    `json:"time_spent"`
}

type problemResponse struct {
	Verdict  grading.Verdict  `json:"verdict"`
	Snapshot tracker.Snapshot `json:"snapshot"`
}

func (s *Server) handleProblemAnswer(w http.ResponseWriter, r *http.Request, userID string) {
	if s.grader == nil {
		writeError(w, r, fmt.Errorf("%w: problem grading", errUnavailable))
		return
	}
	problem, err := s.content.Problem(r.PathValue("problemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body problemAnswer
	if err := decode(w, r, s.schemas.problemAnswer, &body); err != nil {
		writeError(w, r, err)
		return
	}
	verdict, err := s.grader.Grade(r.Context(), userID, problem, body.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, err := s.tracker.Record(r.Context(), userID, learning.ProblemActivity(problem, verdict.Score, body.TimeSpent))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, problemResponse{Verdict: verdict, Snapshot: snap})
}
