package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/castaway/internal/entropy"
)

func sampleRequest() ReplyRequest {
	return ReplyRequest{
		Persona: Persona{
			Name:      "Ana",
			Archetype: "Floater",
			Traits:    []string{"social"},
			Strategy:  "Stay liked.",
			Trust:     30,
			Suspicion: 10,
			Closeness: 50,
		},
		Message:  "Are we good?",
		Tone:     "friendly",
		Category: "conversation",
	}
}

func TestBuildPrompt_BoundsRecent(t *testing.T) {
	r := sampleRequest()
	long := strings.Repeat("x", 500)
	for i := 0; i < 8; i++ {
		r.Recent = append(r.Recent, long)
	}

	req := BuildPrompt(r)
	if got := strings.Count(req.Prompt, "\n- "); got != maxRecent {
		t.Errorf("recent lines = %d, want %d", got, maxRecent)
	}
	if strings.Contains(req.Prompt, strings.Repeat("x", maxRecentChars+1)) {
		t.Error("recent summary not clipped")
	}
	if !strings.Contains(req.Prompt, "Ana") || !strings.Contains(req.Prompt, "Are we good?") {
		t.Errorf("prompt missing persona or message:\n%s", req.Prompt)
	}
	if req.System == "" || req.MaxTokens <= 0 {
		t.Errorf("BuildPrompt() = %+v, want system prompt and token budget", req)
	}
}

func TestReply_UsesGenerator(t *testing.T) {
	gen := NewMockGenerator().WithResponses("  We're good. For now.  ")
	text, generated := Reply(context.Background(), gen, sampleRequest(), nil)
	if !generated || text != "We're good. For now." {
		t.Errorf("Reply() = %q, %v, want trimmed generated line", text, generated)
	}
	if gen.CallCount() != 1 {
		t.Errorf("calls = %d, want 1", gen.CallCount())
	}
}

func TestReply_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{"nil generator", nil},
		{"error", NewMockGenerator().WithError(errors.New("boom"))},
		{"empty", NewMockGenerator().WithResponses("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, generated := Reply(context.Background(), tt.gen, sampleRequest(), entropy.NewSeeded(1))
			if generated {
				t.Error("generated = true, want fallback")
			}
			if text == "" {
				t.Error("fallback line is empty")
			}
		})
	}
}

func TestFallbackLine_Mood(t *testing.T) {
	r := sampleRequest()
	if got := FallbackLine(r, nil); got != fallbackLines["warm"][0] {
		t.Errorf("warm FallbackLine() = %q", got)
	}
	r.Tone = "aggressive"
	if got := FallbackLine(r, nil); got != fallbackLines["hostile"][0] {
		t.Errorf("hostile FallbackLine() = %q", got)
	}
	r.Tone = "neutral"
	r.Persona.Suspicion = 80
	if got := FallbackLine(r, nil); got != fallbackLines["cold"][0] {
		t.Errorf("cold FallbackLine() = %q", got)
	}
}

func TestGenerateRecap(t *testing.T) {
	data := RecapData{
		Week:        2,
		FromDay:     8,
		ToDay:       14,
		Remaining:   6,
		Highlights:  []string{"Ben broke ranks with Cam."},
		Eliminated:  []string{"Cam"},
		Leaders:     []string{"Dee", "Ana"},
		RatingStart: 5,
		RatingEnd:   5.4,
	}

	r := GenerateRecap(context.Background(), nil, data)
	if r.Generated {
		t.Error("Generated = true without a generator")
	}
	for _, want := range []string{"2nd week", "Voted out: Cam", "Dee", "climbed"} {
		if !strings.Contains(r.Content, want) {
			t.Errorf("fallback recap missing %q:\n%s", want, r.Content)
		}
	}

	gen := NewMockGenerator().WithResponses("Previously...")
	r = GenerateRecap(context.Background(), gen, data)
	if !r.Generated || r.Content != "Previously..." {
		t.Errorf("GenerateRecap() = %+v, want generated content", r)
	}
	if !strings.Contains(gen.Calls[0].Prompt, "VOTED OUT: Cam") {
		t.Errorf("recap prompt missing elimination:\n%s", gen.Calls[0].Prompt)
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Messages) != 1 || body.System != "sys" {
			t.Errorf("request = %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"text":" hello "}],"usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient("test-key", "", time.Second, 1)
	c.endpoint = srv.URL

	got, err := c.Generate(context.Background(), Request{System: "sys", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "hello" {
		t.Errorf("Generate() = %q, want hello", got)
	}

	// The one-per-minute budget is spent.
	if _, err := c.Generate(context.Background(), Request{Prompt: "again"}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("second Generate() error = %v, want ErrRateLimited", err)
	}
}

func TestAnthropicClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewAnthropicClient("k", "", time.Second, 10)
	c.endpoint = srv.URL
	if _, err := c.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Error("Generate() error = nil, want API error")
	}
}

func TestNewAnthropicClient_NoKey(t *testing.T) {
	c := NewAnthropicClient("", "", 0, 0)
	if c != nil || c.Enabled() {
		t.Error("client without key should be nil and disabled")
	}
	if _, err := c.Generate(context.Background(), Request{}); !errors.Is(err, ErrDisabled) {
		t.Errorf("Generate() on nil client = %v, want ErrDisabled", err)
	}
}

func TestNew_Providers(t *testing.T) {
	ctx := context.Background()
	if g, err := New(ctx, Options{Provider: "none"}); err != nil || g != nil {
		t.Errorf("New(none) = %v, %v, want nil, nil", g, err)
	}
	if g, err := New(ctx, Options{Provider: "anthropic"}); err != nil || g != nil {
		t.Errorf("New(anthropic, no key) = %v, %v, want nil, nil", g, err)
	}
	if g, err := New(ctx, Options{Provider: "mock"}); err != nil || g == nil {
		t.Errorf("New(mock) = %v, %v, want a mock", g, err)
	}
	if _, err := New(ctx, Options{Provider: "oracle"}); err == nil {
		t.Error("New(oracle) error = nil, want unknown provider")
	}
}
