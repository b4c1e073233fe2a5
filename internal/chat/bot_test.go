package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-literacy/internal/ai"
)

func TestReply_Keywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string // prefix of the expected reply
	}{
		{"greeting", "Hello there", "Hello! I'm excited"},
		{"greeting-folded", "HEY!!", "Hello! I'm excited"},
		{"what-is-ai", "So... what is AI?", "AI (Artificial Intelligence)"},
		{"define", "can you define AI", "AI (Artificial Intelligence)"},
		{"ml-acronym", "tell me about ML", "Machine Learning is"},
		{"machine-learning", "What is machine learning", "Machine Learning is"},
		{"neural", "How does a neural network work", "Neural networks are"},
		{"robots", "Do ROBOTS dream", "Robots are machines"},
		{"future", "jobs in the future", "The future of AI"},
		{"ethics", "Is AI dangerous", "AI ethics is"},
		{"study", "help me study for the quiz", "I'm here to help you learn!"},
		{"games", "can AI play chess", "AI is used in games"},
		{"no-substring-match", "this is machinery", ""},
	}

	bot := NewBot(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bot.Reply(t.Context(), "u1", tt.in)
			if tt.want == "" {
				for _, f := range fallbacks {
					if got == f {
						return
					}
				}
				t.Errorf("Reply(%q) = %q, want a fallback", tt.in, got)
				return
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Reply(%q) = %q, want prefix %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReply_FirstTopicWins(t *testing.T) {
	bot := NewBot(nil, nil)
	got := bot.Reply(t.Context(), "u1", "hi, what is machine learning")
	if !strings.HasPrefix(got, "Hello!") {
		t.Errorf("Reply() = %q, want the greeting topic", got)
	}
}

func TestReply_FallbackRotates(t *testing.T) {
	bot := NewBot(nil, nil)
	ctx := t.Context()
	for i := range 2 * len(fallbacks) {
		if got, want := bot.Reply(ctx, "u1", "xyz"), fallbacks[i%len(fallbacks)]; got != want {
			t.Fatalf("reply %d = %q, want %q", i, got, want)
		}
	}
}

func TestReply_ConcurrentFallbacks(t *testing.T) {
	bot := NewBot(nil, nil)
	ctx := t.Context()

	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bot.Reply(ctx, "u1", "qwerty")
		}()
	}
	wg.Wait()
	if bot.next != 40 {
		t.Errorf("fallback counter = %d, want 40", bot.next)
	}
}

func TestReply_UsesAIForUnmatched(t *testing.T) {
	mock := ai.NewMockProvider("  Computer vision lets machines understand pictures.  ")
	router := ai.NewRouter()
	router.Register("mock", mock)
	bot := NewBot(router, nil)

	got := bot.Reply(t.Context(), "u1", "How does computer vision work?")
	if got != "Computer vision lets machines understand pictures." {
		t.Errorf("Reply() = %q", got)
	}
	if mock.LastRequest.Task != ai.TaskChat {
		t.Errorf("Task = %v, want chat", mock.LastRequest.Task)
	}

	// Keyword hits never reach the model.
	bot.Reply(t.Context(), "u1", "hello")
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1", mock.Calls())
	}
}

func TestReply_AIFailureFallsBack(t *testing.T) {
	router := ai.NewRouter()
	router.Register("mock", &ai.MockProvider{Err: errors.New("offline")})
	bot := NewBot(router, nil)

	if got := bot.Reply(t.Context(), "u1", "xyz"); got != fallbacks[0] {
		t.Errorf("Reply() = %q, want first fallback", got)
	}
}

func TestReply_BudgetLimitsModelUse(t *testing.T) {
	mock := ai.NewMockProvider("A model answer.") // 10 + 15 tokens per call
	router := ai.NewRouter()
	router.Register("mock", mock)
	budget := ai.NewInMemoryBudget(20, time.Hour)
	bot := NewBot(router, budget)
	ctx := t.Context()

	if got := bot.Reply(ctx, "alice", "what is computer vision"); got != "A model answer." {
		t.Fatalf("first Reply() = %q, want the model answer", got)
	}
	if used, _, _ := budget.Usage(ctx, "alice"); used != 25 {
		t.Errorf("alice used = %d, want 25", used)
	}

	if got := bot.Reply(ctx, "alice", "what is computer vision"); got != fallbacks[0] {
		t.Errorf("Reply() after budget spent = %q, want first fallback", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("Calls() = %d, want 1 once the budget is spent", mock.Calls())
	}

	// Budgets are per user.
	if got := bot.Reply(ctx, "bob", "what is computer vision"); got != "A model answer." {
		t.Errorf("bob Reply() = %q, want the model answer", got)
	}
	if mock.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", mock.Calls())
	}
}

type brokenBudget struct{}

func (brokenBudget) Check(context.Context, string) (bool, error) { return false, errors.New("cache down") }
func (brokenBudget) Record(context.Context, string, int) error { return nil }
func (brokenBudget) Usage(context.Context, string) (int64, int64, error) {
	return 0, 0, errors.New("cache down")
}

func TestReply_BudgetErrorFallsBack(t *testing.T) {
	mock := ai.NewMockProvider("A model answer.")
	router := ai.NewRouter()
	router.Register("mock", mock)
	bot := NewBot(router, brokenBudget{})

	if got := bot.Reply(t.Context(), "alice", "xyz"); got != fallbacks[0] {
		t.Errorf("Reply() = %q, want first fallback", got)
	}
	if mock.Calls() != 0 {
		t.Errorf("Calls() = %d, want 0", mock.Calls())
	}
}
