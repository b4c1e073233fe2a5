package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-literacy/internal/ai"
	"github.com/p-n-ai/pai-literacy/internal/platform/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Store:       config.StoreMemory,
		ContentPath: "../../content",
		Grading:     config.GradingConfig{BudgetWindowHours: 24},
		Log:         config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestHealthEndpoints(t *testing.T) {
	svc, err := newApp(t.Context(), testConfig())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(svc.Close)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz with memory store returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"checks":{},"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			svc.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestNewApp_ServesShippedContent(t *testing.T) {
	svc, err := newApp(t.Context(), testConfig())
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(svc.Close)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/u1/lessons/6/1/1/complete", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	svc.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("lesson complete = %d: %s", rec.Code, rec.Body.String())
	}

	// Without a provider, grading is unavailable rather than broken.
	req = httptest.NewRequest(http.MethodPost, "/v1/users/u1/problems/g6-sdg4-tutor/answers",
		strings.NewReader(`{"answer":"an AI tutor"}`))
	req.Header.Set("X-User-ID", "u1")
	rec = httptest.NewRecorder()
	svc.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("problem answer = %d, want 503", rec.Code)
	}
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing-content", func(c *config.Config) { c.ContentPath = t.TempDir() + "/missing" }},
		{"bad-cache-url", func(c *config.Config) { c.Cache.URL = "not-a-url" }},
		{"bad-database-url", func(c *config.Config) {
			c.Store = config.StorePostgres
			c.Database.URL = "://bad"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := newApp(t.Context(), cfg); err == nil {
				t.Error("newApp() should fail")
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
		wantJSON  bool
	}{
		{"json-info", config.LogConfig{Level: "info", Format: "json"}, false, true},
		{"text-debug", config.LogConfig{Level: "DEBUG", Format: "text"}, true, false},
		{"unknown-level", config.LogConfig{Level: "verbose", Format: "json"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.cfg)
			logger.Debug("debug line")
			logger.Info("info line", "user_id", "u1")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			last := lines[len(lines)-1]
			if got := json.Valid([]byte(last)); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %q", got, tt.wantJSON, last)
			}
		})
	}
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want bool
	}{
		{"none", config.AIConfig{}, false},
		{"openai", config.AIConfig{OpenAI: config.OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini"}}, true},
		{"deepseek", config.AIConfig{DeepSeek: config.DeepSeekConfig{APIKey: "k"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(tt.cfg)
			if got := r.HasProvider(); got != tt.want {
				t.Errorf("HasProvider() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if _, err := r.Complete(t.Context(), ai.CompletionRequest{}); !errors.Is(err, ai.ErrNoProvider) {
					t.Errorf("Complete() error = %v, want ErrNoProvider", err)
				}
			}
		})
	}
}
