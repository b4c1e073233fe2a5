package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNoProvider is returned when nothing is registered for a request.
var ErrNoProvider = errors.New("no AI provider registered")

// Router picks providers by task and falls back through the rest in
// registration order.
type Router struct {
	providers map[string]Provider
	fallback  []string            // ordered fallback chain
	routes    map[TaskType]string // preferred provider per task
	mu        sync.RWMutex
}

// NewRouter creates a new AI router.
func NewRouter() *Router {
	return &Router{
		providers: make(map[string]Provider),
		routes:    make(map[TaskType]string),
	}
}

// Register adds a provider to the router.
func (r *Router) Register(name string, provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		r.fallback = append(r.fallback, name)
	}
	r.providers[name] = provider
}

// Route makes name the first provider tried for task.
func (r *Router) Route(task TaskType, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[task] = name
}

func (r *Router) chain(task TaskType) []string {
	preferred, ok := r.routes[task]
	if !ok {
		return r.fallback
	}
	if _, registered := r.providers[preferred]; !registered {
		return r.fallback
	}
	out := []string{preferred}
	for _, name := range r.fallback {
		if name != preferred {
			out = append(out, name)
		}
	}
	return out
}

// Complete routes a request to the best available provider.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.providers) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var errs []error
	for _, name := range r.chain(req.Task) {
		provider := r.providers[name]

		resp, err := provider.Complete(ctx, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", name,
				"task", req.Task.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		slog.Debug("AI request completed",
			"provider", name,
			"task", req.Task.String(),
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", errors.Join(errs...))
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}
