// Package ai provides a provider-agnostic completion gateway with task-based
// routing and per-user token budgets.
package ai

import "context"

// TaskType selects the preferred provider for a request.
type TaskType int

const (
	TaskGrading TaskType = iota
	TaskChat
)

func (t TaskType) String() string {
	switch t {
	case TaskGrading:
		return "grading"
	case TaskChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
	// JSON asks the provider to constrain output to a single JSON object.
	JSON bool `json:"json,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider completes a request against one backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
