package autopilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/castaway/internal/engine"
)

// Actor carries out decisions through the gameplay endpoints.
type Actor struct {
	BaseURL    string
	Token      string // optional bearer token
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL.
func NewActor(baseURL, token string) *Actor {
	return &Actor{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Act executes d and returns the raw JSON response. ActionNone is a no-op.
func (a *Actor) Act(ctx context.Context, d *Decision) (json.RawMessage, error) {
	switch d.Action {
	case ActionNone:
		return nil, nil
	case ActionChoose:
		return a.post(ctx, "/api/v1/emergent/choice", map[string]string{"choice": string(d.Choice)})
	case ActionMend:
		return a.post(ctx, "/api/v1/interact", map[string]string{
			"target":   string(d.Target),
			"content":  d.Message,
			"tone":     "friendly",
			"category": engine.CategoryConversation,
		})
	case ActionAdvance:
		return a.post(ctx, "/api/v1/advance", struct{}{})
	}
	return nil, fmt.Errorf("unknown action %q", d.Action)
}

func (a *Actor) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("POST %s failed (%d): %s", path, resp.StatusCode, bytes.TrimSpace(respBody))
	}
	return json.RawMessage(respBody), nil
}
