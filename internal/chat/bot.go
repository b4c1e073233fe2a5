// Package chat is the study-buddy chatbot. Replies come from a keyword table;
// questions it has no answer for go to the AI router when one is configured.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/p-n-ai/pai-literacy/internal/ai"
)

// Greeting is sent when a conversation opens.
const Greeting = "Hi there! I'm your AI assistant. Ask me anything about Artificial Intelligence! 🤖"

type topic struct {
	keywords []string
	reply    string
}

// topics are checked in order; the first with a matching keyword wins.
var topics = []topic{
	{
		keywords: []string{"hello", "hi", "hey"},
		reply:    "Hello! I'm excited to help you learn about AI! What would you like to know about artificial intelligence today?",
	},
	{
		keywords: []string{"what is ai", "define ai", "what is artificial intelligence"},
		reply:    "AI (Artificial Intelligence) is like teaching computers to think and learn like humans! It's when we make machines that can solve problems, recognize patterns, and make decisions. Think of it as giving computers a brain to understand and help us!",
	},
	{
		keywords: []string{"machine learning", "ml", "learning"},
		reply:    "Machine Learning is a way for computers to learn from examples, just like how you learn to recognize your friends' faces! The more examples we show the computer, the better it gets at making predictions and decisions.",
	},
	{
		keywords: []string{"neural network", "neural networks", "brain", "neuron", "neurons"},
		reply:    "Neural networks are computer systems inspired by how our brains work! Just like our brain has neurons that connect and send messages, neural networks have artificial neurons that work together to process information and learn patterns.",
	},
	{
		keywords: []string{"robot", "robots", "robotics"},
		reply:    "Robots are machines that can move and do tasks automatically! With AI, robots can be smart - they can see with cameras, hear with microphones, and make decisions about what to do next. Cool, right?",
	},
	{
		keywords: []string{"future", "career", "careers", "job", "jobs"},
		reply:    "The future of AI is super exciting! AI will help doctors find cures, help us explore space, make cars safer, and solve climate change. There are amazing careers in AI like AI engineer, data scientist, and robotics designer!",
	},
	{
		keywords: []string{"ethics", "safe", "dangerous"},
		reply:    "AI ethics is about making sure AI is fair, safe, and helpful for everyone! We need to teach AI to be kind, honest, and respectful, just like we teach these values to people. It's important that AI helps make the world better!",
	},
	{
		keywords: []string{"study", "learn", "grade", "quiz"},
		reply:    "I'm here to help you learn! Pick a grade level from 6-10 on the dashboard to start with quizzes and lessons. Each grade has topics perfect for your level - from basic AI concepts to advanced topics like deep learning!",
	},
	{
		keywords: []string{"game", "games", "play", "fun"},
		reply:    "AI is used in games to make characters smart and challenging! Game AI can control enemies, create realistic behavior, and even generate new game content. Many games use AI to adapt to how you play!",
	},
}

var fallbacks = []string{
	"That's a great question about AI! AI is all around us - in phones, cars, games, and more. What specific part of AI interests you most?",
	"Interesting topic! AI can help solve many real-world problems. Would you like to know more about how AI works or how it's used in different fields?",
	"AI is fascinating! It combines computer science, mathematics, and creativity. What grade level are you studying? I can give you examples perfect for your level!",
	"Great thinking! AI is always evolving and there's so much to discover. Are you interested in learning about specific AI topics like computer vision, natural language processing, or robotics?",
}

const chatSystemPrompt = "You are a friendly AI tutor for students in grades 6 to 10. Answer questions about artificial intelligence in two to four short, simple sentences."

// Completer is the subset of ai.Router the bot needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Bot answers chat messages. It is safe for concurrent use.
type Bot struct {
	ai     Completer
	budget ai.Budget
	fold   cases.Caser

	mu   sync.Mutex
	next int
}

// NewBot creates a bot. completer may be nil, in which case unmatched
// messages get a canned fallback. A nil budget leaves model use unmetered.
func NewBot(completer Completer, budget ai.Budget) *Bot {
	return &Bot{ai: completer, budget: budget, fold: cases.Fold()}
}

// Reply returns the answer to userID's text. Model calls are charged to
// userID's token budget; an exhausted budget gets the canned fallbacks.
func (b *Bot) Reply(ctx context.Context, userID, text string) string {
	words := b.words(text)
	for _, t := range topics {
		for _, k := range t.keywords {
			if containsPhrase(words, strings.Fields(k)) {
				return t.reply
			}
		}
	}

	if reply, ok := b.ask(ctx, userID, text); ok {
		return reply
	}
	return b.fallback()
}

func (b *Bot) ask(ctx context.Context, userID, text string) (string, bool) {
	if b.ai == nil {
		return "", false
	}
	if b.budget != nil {
		ok, err := b.budget.Check(ctx, userID)
		if err != nil {
			slog.Warn("chat budget check failed", "user_id", userID, "error", err)
			return "", false
		}
		if !ok {
			slog.Info("chat token budget exhausted", "user_id", userID)
			return "", false
		}
	}

	resp, err := b.ai.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: text},
		},
		MaxTokens:   200,
		Temperature: 0.7,
		Task:        ai.TaskChat,
	})
	if err != nil {
		slog.Warn("chat completion failed, using fallback", "user_id", userID, "error", err)
		return "", false
	}
	if b.budget != nil {
		if err := b.budget.Record(ctx, userID, resp.TotalTokens()); err != nil {
			slog.Warn("recording chat tokens failed", "user_id", userID, "error", err)
		}
	}
	reply := strings.TrimSpace(resp.Content)
	return reply, reply != ""
}

func (b *Bot) fallback() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := fallbacks[b.next%len(fallbacks)]
	b.next++
	return r
}

// words case-folds text and splits it on anything that is not a letter or
// digit.
func (b *Bot) words(text string) []string {
	b.mu.Lock()
	folded := b.fold.String(text)
	b.mu.Unlock()
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
