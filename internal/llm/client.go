// Package llm adapts external text-generation services for contestant
// dialogue and episode recaps. Output is presentation only; nothing here
// feeds back into simulation state.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-haiku-4-5-20251001"
)

var (
	// ErrDisabled means no generator is configured.
	ErrDisabled = errors.New("text generation not configured")
	// ErrRateLimited means the per-minute call budget is spent.
	ErrRateLimited = errors.New("text generation rate limit exceeded")
	// ErrEmpty means the service answered with no text.
	ErrEmpty = errors.New("empty response")
)

// Request is one completion call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// AnthropicClient wraps the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAnthropicClient creates a Messages API client. It returns nil if apiKey
// is empty. perMinute caps calls; a spent budget fails fast rather than
// queueing.
func NewAnthropicClient(apiKey, model string, timeout time.Duration, perMinute int) *AnthropicClient {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   anthropicURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(perMinute),
	}
}

// newLimiter allows perMinute calls a minute with a burst of the same size.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// Enabled reports whether the client has a key.
func (c *AnthropicClient) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends req and returns the reply text.
func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if !c.limiter.Allow() {
		return "", ErrRateLimited
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 200
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out messagesResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Content) == 0 || strings.TrimSpace(out.Content[0].Text) == "" {
		return "", ErrEmpty
	}

	slog.Debug("anthropic call",
		"model", c.model,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
	)
	return strings.TrimSpace(out.Content[0].Text), nil
}

// Options selects and configures a generator.
type Options struct {
	Provider          string // anthropic, gemini, mock, or none
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// New builds the configured generator. Provider "none" or a missing key
// yields a nil Generator, which Reply and GenerateRecap treat as disabled.
func New(ctx context.Context, opts Options) (Generator, error) {
	switch strings.ToLower(opts.Provider) {
	case "", "none":
		return nil, nil
	case "anthropic":
		c := NewAnthropicClient(opts.APIKey, opts.Model, opts.Timeout, opts.RequestsPerMinute)
		if c == nil {
			slog.Warn("anthropic provider selected without an api key; dialogue falls back to templates")
			return nil, nil
		}
		return c, nil
	case "gemini":
		if opts.APIKey == "" {
			slog.Warn("gemini provider selected without an api key; dialogue falls back to templates")
			return nil, nil
		}
		return NewGeminiClient(ctx, opts.APIKey, opts.Model, opts.RequestsPerMinute)
	case "mock":
		return NewMockGenerator(), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
}
