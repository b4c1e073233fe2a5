// Package grading scores free-text answers to SDG problems with an AI model.
package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-literacy/internal/ai"
	"github.com/p-n-ai/pai-literacy/internal/curriculum"
	"github.com/p-n-ai/pai-literacy/internal/platform/metrics"
)

var (
	// ErrBudgetExceeded is returned when the learner has used up their token
	// budget for the current window.
	ErrBudgetExceeded = errors.New("grading budget exceeded")

	// ErrInvalidVerdict is returned when the model's reply is not a verdict
	// object that matches the schema.
	ErrInvalidVerdict = errors.New("invalid grading verdict")

	// ErrEmptyAnswer is returned for blank answers; no model call is made.
	ErrEmptyAnswer = errors.New("answer is empty")
)

const (
	defaultMaxTokens = 600
	maxAnswerLen     = 4000
)

const verdictSchema = `{
  "type": "object",
  "required": ["score", "feedback"],
  "properties": {
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "feedback": {"type": "string", "minLength": 1},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "improvements": {"type": "array", "items": {"type": "string"}}
  }
}`

// Verdict is the model's assessment of one answer.
type Verdict struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
	TokensUsed   int      `json:"tokens_used"`
}

// Completer is the subset of ai.Router the grader needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Config holds the grader's dependencies.
type Config struct {
	AI        Completer
	Budget    ai.Budget        // optional; nil means unlimited
	Metrics   *metrics.Metrics // optional
	MaxTokens int
}

// Grader grades problem answers.
type Grader struct {
	ai        Completer
	budget    ai.Budget
	metrics   *metrics.Metrics
	maxTokens int
	schema    *gojsonschema.Schema
}

// New creates a grader.
func New(cfg Config) (*Grader, error) {
	if cfg.AI == nil {
		return nil, errors.New("grading: AI completer is required")
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(verdictSchema))
	if err != nil {
		return nil, fmt.Errorf("compile verdict schema: %w", err)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Grader{
		ai:        cfg.AI,
		budget:    cfg.Budget,
		metrics:   cfg.Metrics,
		maxTokens: maxTokens,
		schema:    schema,
	}, nil
}

// Grade asks the model to score answer against problem.
func (g *Grader) Grade(ctx context.Context, userID string, problem curriculum.Problem, answer string) (Verdict, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Verdict{}, ErrEmptyAnswer
	}
	answer = truncate(answer, maxAnswerLen)

	if g.budget != nil {
		ok, err := g.budget.Check(ctx, userID)
		if err != nil {
			g.observe("error")
			return Verdict{}, fmt.Errorf("check budget: %w", err)
		}
		if !ok {
			g.observe("budget_exceeded")
			return Verdict{}, ErrBudgetExceeded
		}
	}

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(problem, answer)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: 0.2,
		Task:        ai.TaskGrading,
		JSON:        true,
	})
	if err != nil {
		g.observe("error")
		return Verdict{}, fmt.Errorf("grade problem %s: %w", problem.ID, err)
	}

	// Tokens are spent whether or not the reply is usable.
	if g.budget != nil {
		if err := g.budget.Record(ctx, userID, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record grading tokens", "user_id", userID, "error", err)
		}
	}

	v, err := g.parse(resp.Content)
	if err != nil {
		g.observe("invalid")
		slog.Warn("model returned an invalid verdict",
			"user_id", userID,
			"problem_id", problem.ID,
			"model", resp.Model,
			"error", err,
		)
		return Verdict{}, err
	}
	v.TokensUsed = resp.TotalTokens()

	g.observe("ok")
	slog.Info("problem graded",
		"user_id", userID,
		"problem_id", problem.ID,
		"score", v.Score,
		"tokens", v.TokensUsed,
	)
	return v, nil
}

func (g *Grader) parse(content string) (Verdict, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: no JSON object in reply", ErrInvalidVerdict)
	}

	res, err := g.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrInvalidVerdict, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return Verdict{}, fmt.Errorf("%w: %s", ErrInvalidVerdict, strings.Join(msgs, "; "))
	}

	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrInvalidVerdict, err)
	}
	return v, nil
}

func (g *Grader) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.GradingRequests.WithLabelValues(outcome).Inc()
	}
}

// extractJSON returns the outermost {...} span, tolerating code fences or
// prose around it.
func extractJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
