package httpapi

import (
	"net/http"

	"github.com/p-n-ai/pai-literacy/internal/curriculum"
)

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	grade, err := pathInt(r, "grade")
	if err != nil {
		writeError(w, r, err)
		return
	}
	gl, err := s.content.Lessons(grade)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gl)
}

// handleQuizzes lists a grade's quizzes. Correct answers are never
// serialised.
func (s *Server) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	grade, err := pathInt(r, "grade")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quizzes := s.content.Quizzes(grade)
	if quizzes == nil {
		quizzes = []curriculum.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	missions := s.content.Missions()
	if missions == nil {
		missions = []curriculum.Mission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	grade, err := pathInt(r, "grade")
	if err != nil {
		writeError(w, r, err)
		return
	}
	problems := s.content.Problems(grade)
	if problems == nil {
		problems = []curriculum.Problem{}
	}
	writeJSON(w, http.StatusOK, problems)
}
