package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient generates text through the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiClient connects to Gemini with an API key.
func NewGeminiClient(ctx context.Context, apiKey, model string, perMinute int) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" || strings.HasPrefix(model, "claude") {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, limiter: newLimiter(perMinute)}, nil
}

// Generate sends req and returns the reply text.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrDisabled
	}
	if !g.limiter.Allow() {
		return "", ErrRateLimited
	}

	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmpty
	}

	slog.Debug("gemini call", "model", g.model, "chars", len(text))
	return text, nil
}
