package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-literacy/internal/ai"
	"github.com/p-n-ai/pai-literacy/internal/audit"
	"github.com/p-n-ai/pai-literacy/internal/badge"
	"github.com/p-n-ai/pai-literacy/internal/chat"
	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/grading"
	"github.com/p-n-ai/pai-literacy/internal/httpapi"
	"github.com/p-n-ai/pai-literacy/internal/platform/cache"
	"github.com/p-n-ai/pai-literacy/internal/platform/config"
	"github.com/p-n-ai/pai-literacy/internal/platform/database"
	"github.com/p-n-ai/pai-literacy/internal/platform/metrics"
	"github.com/p-n-ai/pai-literacy/internal/progress"
	"github.com/p-n-ai/pai-literacy/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	svc, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      svc.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from LEARN_LOG_LEVEL and
// LEARN_LOG_FORMAT.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires stores, AI providers and the HTTP server from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	m := metrics.New()
	checks := map[string]httpapi.Checker{}

	var (
		activities progress.Store  = progress.NewMemoryStore()
		badges     badge.Store     = badge.NewMemoryStore()
		events     audit.Logger    = audit.NewMemoryLogger()
		roles      audit.RoleStore = audit.NewMemoryRoleStore()
	)
	if cfg.Store == config.StorePostgres {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db

		if activities, err = progress.NewPostgresStore(db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		if badges, err = badge.NewPostgresStore(db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		if roles, err = audit.NewPostgresRoleStore(db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		events = audit.NewPostgresLogger(db.Pool)
	}

	window := time.Duration(cfg.Grading.BudgetWindowHours) * time.Hour
	var budget ai.Budget = ai.NewInMemoryBudget(cfg.Grading.TokenBudget, window)
	if cfg.Cache.URL != "" {
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		a.closers = append(a.closers, func() { c.Close() })
		checks["cache"] = c
		budget = ai.NewRedisBudget(c.Client, cfg.Grading.TokenBudget, window)
	}

	content, err := curriculum.NewLoader(cfg.ContentPath)
	if err != nil {
		a.Close()
		return nil, err
	}

	router := newRouter(cfg.AI)
	var (
		grader    *grading.Grader
		completer chat.Completer
	)
	if router.HasProvider() {
		completer = router
		grader, err = grading.New(grading.Config{AI: router, Budget: budget, Metrics: m})
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		slog.Warn("no AI provider configured, problem grading disabled")
	}

	srv, err := httpapi.New(httpapi.Config{
		Tracker: tracker.NewService(tracker.Config{
			Activities: activities,
			Badges:     badges,
			Metrics:    m,
		}),
		Content:      content,
		Grader:       grader,
		Chat:         chat.NewHandler(chat.NewBot(completer, budget)),
		Audit:        events,
		Roles:        roles,
		Metrics:      m,
		AdminKeyHash: cfg.Admin.KeyHash,
		Checks:       checks,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.handler = srv.Handler()
	return a, nil
}

// newRouter registers every provider that has an API key. Grading prefers
// OpenAI and chat prefers DeepSeek when both are present.
func newRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	if cfg.OpenAI.APIKey != "" {
		opts := []ai.OpenAIOption{ai.WithDefaultModel(cfg.OpenAI.Model)}
		if cfg.OpenAI.BaseURL != "" {
			opts = append(opts, ai.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, opts...))
		router.Route(ai.TaskGrading, "openai")
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
		router.Route(ai.TaskChat, "deepseek")
	}
	return router
}
