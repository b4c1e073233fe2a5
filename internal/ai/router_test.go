package ai_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-literacy/internal/ai"
)

func request(task ai.TaskType) ai.CompletionRequest {
	return ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "hi"}},
		Task:     task,
	}
}

func TestRouter_SingleProvider(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", ai.NewMockProvider("Hello!"))

	resp, err := router.Complete(t.Context(), request(ai.TaskChat))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello!")
	}
}

func TestRouter_Fallback(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", &ai.MockProvider{Err: errors.New("rate limited")})
	router.Register("deepseek", ai.NewMockProvider("Fallback response"))

	resp, err := router.Complete(t.Context(), request(ai.TaskGrading))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Fallback response" {
		t.Errorf("Content = %q, want %q", resp.Content, "Fallback response")
	}
}

func TestRouter_AllProvidersFail(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", &ai.MockProvider{Err: errors.New("fail 1")})
	router.Register("deepseek", &ai.MockProvider{Err: errors.New("fail 2")})

	if _, err := router.Complete(t.Context(), request(ai.TaskGrading)); err == nil {
		t.Fatal("Complete() should return error when all providers fail")
	}
}

func TestRouter_NoProviders(t *testing.T) {
	router := ai.NewRouter()

	_, err := router.Complete(t.Context(), request(ai.TaskGrading))
	if !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("Complete() error = %v, want ErrNoProvider", err)
	}
	if router.HasProvider() {
		t.Error("HasProvider() should be false with no providers")
	}
}

func TestRouter_RoutesByTask(t *testing.T) {
	router := ai.NewRouter()
	openai := ai.NewMockProvider("openai")
	deepseek := ai.NewMockProvider("deepseek")
	router.Register("openai", openai)
	router.Register("deepseek", deepseek)
	router.Route(ai.TaskGrading, "deepseek")

	tests := []struct {
		task ai.TaskType
		want string
	}{
		{ai.TaskGrading, "deepseek"},
		{ai.TaskChat, "openai"},
	}
	for _, tt := range tests {
		t.Run(tt.task.String(), func(t *testing.T) {
			resp, err := router.Complete(t.Context(), request(tt.task))
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if resp.Content != tt.want {
				t.Errorf("Content = %q, want %q", resp.Content, tt.want)
			}
		})
	}
}

func TestRouter_RouteToUnknownProviderFallsBack(t *testing.T) {
	router := ai.NewRouter()
	router.Register("openai", ai.NewMockProvider("openai"))
	router.Route(ai.TaskGrading, "missing")

	resp, err := router.Complete(t.Context(), request(ai.TaskGrading))
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "openai" {
		t.Errorf("Content = %q, want openai", resp.Content)
	}
}

func TestMockProvider_Responses(t *testing.T) {
	mock := &ai.MockProvider{Responses: []string{"one", "two"}}
	var got []string
	for range 3 {
		resp, err := mock.Complete(t.Context(), request(ai.TaskChat))
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		got = append(got, resp.Content)
	}
	if got[0] != "one" || got[1] != "two" || got[2] != "two" {
		t.Errorf("responses = %v, want [one two two]", got)
	}
	if mock.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", mock.Calls())
	}
}
