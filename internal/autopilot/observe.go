// Package autopilot plays the player's side of a running game.
// It observes state via the API, decides on one move per cycle, and acts
// through the gameplay endpoints.
package autopilot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/interrupt"
)

// GameSnapshot holds all data collected during an observation cycle.
type GameSnapshot struct {
	Status  engine.Status         `json:"status"`
	Agents  []engine.AgentSummary `json:"agents"`
	Pending *interrupt.Event      `json:"pending,omitempty"`
}

// Observer fetches game state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches status, contestants, and any pending emergent event.
func (o *Observer) Observe(ctx context.Context) (*GameSnapshot, error) {
	snap := &GameSnapshot{}

	var status struct {
		Game engine.Status `json:"game"`
	}
	if err := o.fetchJSON(ctx, "/api/v1/status", &status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	snap.Status = status.Game

	if err := o.fetchJSON(ctx, "/api/v1/agents", &snap.Agents); err != nil {
		return nil, fmt.Errorf("fetch agents: %w", err)
	}

	var emergent struct {
		Pending bool            `json:"pending"`
		Event   interrupt.Event `json:"event"`
	}
	if err := o.fetchJSON(ctx, "/api/v1/emergent", &emergent); err != nil {
		return nil, fmt.Errorf("fetch emergent: %w", err)
	}
	if emergent.Pending {
		snap.Pending = &emergent.Event
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WaitReady polls the status endpoint with exponential backoff until it
// responds or ctx ends.
func (o *Observer) WaitReady(ctx context.Context) error {
	backoff := 2 * time.Second
	const maxBackoff = 30 * time.Second

	for {
		var status map[string]any
		err := o.fetchJSON(ctx, "/api/v1/status", &status)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready: %w", err)
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
