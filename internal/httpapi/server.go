// Package httpapi exposes progress tracking, learning flows, the chatbot and
// the admin audit views over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-literacy/internal/audit"
	"github.com/p-n-ai/pai-literacy/internal/chat"
	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/grading"
	"github.com/p-n-ai/pai-literacy/internal/platform/metrics"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

// Checker is anything /readyz can check.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the server's dependencies. Tracker and Content are required;
// a nil Grader or Chat disables those routes' features.
type Config struct {
	Tracker      *tracker.Service
	Content      *curriculum.Loader
	Grader       *grading.Grader
	Chat         *chat.Handler
	Audit        audit.Logger
	Roles        audit.RoleStore
	Metrics      *metrics.Metrics
	AdminKeyHash string
	Checks       map[string]Checker
}

// Server routes HTTP requests to the services.
type Server struct {
	tracker      *tracker.Service
	content      *curriculum.Loader
	grader       *grading.Grader
	chat         *chat.Handler
	audit        audit.Logger
	roles        audit.RoleStore
	metrics      *metrics.Metrics
	adminKeyHash []byte
	checks       map[string]Checker
	schemas      schemas
}

// New validates cfg and compiles the request schemas.
func New(cfg Config) (*Server, error) {
	if cfg.Tracker == nil {
		return nil, errors.New("httpapi: tracker is required")
	}
	if cfg.Content == nil {
		return nil, errors.New("httpapi: content loader is required")
	}
	sc, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		tracker: cfg.Tracker,
		content: cfg.Content,
		grader:  cfg.Grader,
		chat:    cfg.Chat,
		audit:   cfg.Audit,
		roles:   cfg.Roles,
		metrics: cfg.Metrics,
		checks:  cfg.Checks,
		schemas: sc,
	}
	if s.audit == nil {
		s.audit = audit.NopLogger{}
	}
	if cfg.AdminKeyHash != "" {
		s.adminKeyHash = []byte(cfg.AdminKeyHash)
	}
	return s, nil
}

// Handler returns the routed mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /healthz", http.HandlerFunc(handleHealthz))
	s.handle(mux, "GET /readyz", http.HandlerFunc(s.handleReadyz))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle(mux, "GET /v1/users/{userID}/progress", s.requireUser(s.handleProgress))
	s.handle(mux, "GET /v1/users/{userID}/grades/{grade}", s.requireUser(s.handleGrade))
	s.handle(mux, "GET /v1/users/{userID}/activities/{type}/{activityID}", s.requireUser(s.handleActivity))
	s.handle(mux, "POST /v1/users/{userID}/activities", s.requireUser(s.handleRecord))
	s.handle(mux, "POST /v1/users/{userID}/quizzes/{grade}/{difficulty}/submissions", s.requireUser(s.handleQuizSubmission))
	s.handle(mux, "POST /v1/users/{userID}/lessons/{grade}/{topicID}/{lessonID}/complete", s.requireUser(s.handleLessonComplete))
	s.handle(mux, "POST /v1/users/{userID}/missions/{missionID}/progress", s.requireUser(s.handleMissionProgress))
	s.handle(mux, "POST /v1/users/{userID}/problems/{problemID}/answers", s.requireUser(s.handleProblemAnswer))
	s.handle(mux, "POST /v1/users/{userID}/events", s.requireUser(s.handleEvent))

	s.handle(mux, "GET /v1/content/grades/{grade}/lessons", http.HandlerFunc(s.handleLessons))
	s.handle(mux, "GET /v1/content/grades/{grade}/quizzes", http.HandlerFunc(s.handleQuizzes))
	s.handle(mux, "GET /v1/content/missions", http.HandlerFunc(s.handleMissions))
	s.handle(mux, "GET /v1/content/grades/{grade}/problems", http.HandlerFunc(s.handleProblems))

	if s.chat != nil {
		s.handle(mux, "GET /v1/chat", s.requireIdentity(s.chat.Serve))
	}

	s.handle(mux, "GET /v1/admin/activity", s.requireAdmin(s.handleAdminActivity))
	s.handle(mux, "GET /v1/admin/activity.xlsx", s.requireAdmin(s.handleAdminExport))
	s.handle(mux, "GET /v1/admin/roles", s.requireAdmin(s.handleAdminRoles))
	s.handle(mux, "POST /v1/admin/roles/{userID}", s.requireAdmin(s.handleAdminGrant))

	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.Handler) {
	if s.metrics != nil {
		h = s.metrics.Middleware(pattern, h)
	}
	mux.Handle(pattern, h)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": "ready", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "not ready"
	}
	writeJSON(w, status, body)
}
