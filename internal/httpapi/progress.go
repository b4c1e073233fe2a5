package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, userID string) {
	snap, err := s.tracker.Snapshot(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request, userID string) {
	grade, err := pathInt(r, "grade")
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := s.tracker.Grade(r.Context(), userID, grade)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request, userID string) {
	rec, err := s.tracker.Activity(r.Context(), userID,
		progress.ActivityType(r.PathValue("type")), r.PathValue("activityID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request, userID string) {
	var req tracker.RecordRequest
	if err := decode(w, r, s.schemas.recordActivity, &req); err != nil {
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

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}
