package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	deepSeekBaseURL = "https://api.deepseek.com"
	openAIModel     = "gpt-4o-mini"
	deepSeekModel   = "deepseek-chat"

	maxResponseBytes = 1 << 20
	maxErrorBody     = 512
)

// ErrTruncated is returned when a JSON-mode reply hit the token limit and
// cannot be parsed.
var ErrTruncated = errors.New("completion truncated at token limit")

// APIError is a non-200 reply from a chat completions endpoint.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// OpenAIProvider talks to any chat completions API shaped like OpenAI's.
type OpenAIProvider struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL points the provider at another compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if url != "" {
			p.baseURL = url
		}
	}
}

// WithHTTPClient replaces the default client, which times out after 60s.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.client = client
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		if model != "" {
			p.model = model
		}
	}
}

func withName(name string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.name = name
	}
}

// NewOpenAIProvider returns a provider for the OpenAI API.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		name:    "openai",
		apiKey:  apiKey,
		baseURL: openAIBaseURL,
		model:   openAIModel,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDeepSeekProvider returns a provider for the DeepSeek API.
func NewDeepSeekProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	base := []OpenAIOption{withName("deepseek"), WithBaseURL(deepSeekBaseURL), WithDefaultModel(deepSeekModel)}
	return NewOpenAIProvider(apiKey, append(base, opts...)...)
}

// Name identifies the provider in logs and errors.
func (p *OpenAIProvider) Name() string {
	return p.name
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) newRequest(req CompletionRequest) chatRequest {
	out := chatRequest{
		Model:     req.Model,
		Messages:  req.Messages,
		MaxTokens: max(req.MaxTokens, 0),
	}
	if out.Model == "" {
		out.Model = p.model
	}
	if req.Temperature > 0 {
		t := req.Temperature
		out.Temperature = &t
	}
	if req.JSON {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return out
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body, err := json.Marshal(p.newRequest(req))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return CompletionResponse{}, &APIError{Provider: p.name, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return CompletionResponse{}, errors.New("no choices in response")
	}
	choice := cr.Choices[0]
	if req.JSON && choice.FinishReason == "length" {
		return CompletionResponse{}, ErrTruncated
	}

	return CompletionResponse{
		Content:      choice.Message.Content,
		Model:        cr.Model,
		InputTokens:  cr.Usage.PromptTokens,
		OutputTokens: cr.Usage.CompletionTokens,
	}, nil
}
