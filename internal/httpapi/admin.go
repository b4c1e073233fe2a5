package httpapi

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-literacy/internal/audit"
)

// exportEventLimit caps the activity sheet of the admin workbook.
const exportEventLimit = 10_000

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type eventRequest struct {
	ActivityType string `json:"activity_type"`
	UserEmail    string `json:"user_email"`
	UserName     string `json:"user_name"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request, userID string) {
	var req eventRequest
	if err := decode(w, r, s.schemas.auditEvent, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ev := audit.Event{
		UserID:       userID,
		UserEmail:    req.UserEmail,
		UserName:     req.UserName,
		ActivityType: audit.EventType(req.ActivityType),
		CreatedAt:    time.Now(),
	}
	if err := s.audit.LogEvent(r.Context(), ev); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("account event logged", "user_id", userID, "activity_type", ev.ActivityType)
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleAdminActivity(w http.ResponseWriter, r *http.Request) {
	limit := audit.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, exportEventLimit)
	}

	events, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAdminRoles(w http.ResponseWriter, r *http.Request) {
	if s.roles == nil {
		writeError(w, r, fmt.Errorf("%w: roles", errUnavailable))
		return
	}
	grants, err := s.roles.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if grants == nil {
		grants = []audit.RoleGrant{}
	}
	writeJSON(w, http.StatusOK, grants)
}

type grantRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleAdminGrant(w http.ResponseWriter, r *http.Request) {
	if s.roles == nil {
		writeError(w, r, fmt.Errorf("%w: roles", errUnavailable))
		return
	}
	var req grantRequest
	if err := decode(w, r, s.schemas.roleGrant, &req); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.roles.Grant(r.Context(), r.PathValue("userID"), audit.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("role granted", "user_id", g.UserID, "role", g.Role)
	writeJSON(w, http.StatusOK, g)
}

// handleAdminExport streams the workbook. The progress sheet covers every
// user seen in the activity log or the role list.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	events, err := s.audit.Recent(ctx, exportEventLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var grants []audit.RoleGrant
	if s.roles != nil {
		if grants, err = s.roles.List(ctx); err != nil {
			writeError(w, r, err)
			return
		}
	}

	users, err := s.tracker.Learners(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, e := range events {
		users = append(users, e.UserID)
	}
	for _, g := range grants {
		users = append(users, g.UserID)
	}
	slices.Sort(users)
	users = slices.Compact(users)

	records, err := s.tracker.AllRecords(ctx, users)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := audit.ExportWorkbook(&buf, events, grants, records); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="activity.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write export", "error", err)
	}
}
