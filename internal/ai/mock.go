package ai

import (
	"context"
	"sync"
)

// MockProvider is a test double for AI providers. Responses, when set, are
// returned in order and the last one repeats; otherwise Response is used.
type MockProvider struct {
	Response    string
	Responses   []string
	Err         error
	LastRequest *CompletionRequest // captures the last request for inspection

	mu    sync.Mutex
	calls int
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRequest = &req
	m.calls++
	if m.Err != nil {
		return CompletionResponse{}, m.Err
	}

	content := m.Response
	if n := len(m.Responses); n > 0 {
		content = m.Responses[min(m.calls, n)-1]
	}
	return CompletionResponse{
		Content:      content,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: len(content),
	}, nil
}

// Calls reports how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
