package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/llm"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/persistence"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.EmergentChance = 1e-9
	cast := []*agents.Agent{
		{ID: agents.PlayerID, Name: "You", IsPlayer: true},
		agents.NewContestant("ana", "Ana", agents.ArchFloater, nil),
		agents.NewContestant("ben", "Ben", agents.ArchVillain, nil),
		agents.NewContestant("cam", "Cam", agents.ArchLoyalist, nil),
	}
	sim, err := engine.NewFromCast(cfg, cast, entropy.NewStreams(7))
	if err != nil {
		t.Fatal(err)
	}
	return &Server{
		Sim:      sim,
		Gen:      llm.NewMockGenerator().WithResponses("Sure, I'm in."),
		Slot:     "test",
		AdminKey: "admin-secret",
		RelayKey: "relay-secret",
	}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/status", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Game engine.Status `json:"game"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Game.Day != 1 || resp.Game.Active != 4 {
		t.Errorf("status = %+v, want day 1 with 4 active", resp.Game)
	}
}

func TestInteract(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/interact", `{"target":"ana","content":"Thanks, you're a great friend"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("interact = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Reaction  engine.Reaction `json:"reaction"`
		Reply     string          `json:"reply"`
		Generated bool            `json:"generated"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reaction.Tone != engine.ToneFriendly {
		t.Errorf("tone = %q, want friendly", resp.Reaction.Tone)
	}
	if resp.Reply != "Sure, I'm in." || !resp.Generated {
		t.Errorf("reply = %q, %v, want generated mock line", resp.Reply, resp.Generated)
	}
	prompt := srv.Gen.(*llm.MockGenerator).Calls[0].Prompt
	if !strings.Contains(prompt, "Ana") {
		t.Errorf("reply prompt missing speaker:\n%s", prompt)
	}
}

func TestInteract_Errors(t *testing.T) {
	h := newTestServer(t).Handler()
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"empty content", `{"target":"ana","content":"  "}`, http.StatusBadRequest},
		{"unknown target", `{"target":"zed","content":"hi"}`, http.StatusNotFound},
		{"player target", `{"target":"player","content":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/interact", tt.body, "")
			if rec.Code != tt.want {
				t.Errorf("interact = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestFormAlliance(t *testing.T) {
	h := newTestServer(t).Handler()
	body := `{"name":"Reef","members":["player","ana"]}`

	rec := do(t, h, http.MethodPost, "/api/v1/alliance", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("alliance = %d: %s", rec.Code, rec.Body)
	}
	if got := do(t, h, http.MethodPost, "/api/v1/alliance", body, ""); got.Code != http.StatusConflict {
		t.Errorf("duplicate alliance = %d, want 409", got.Code)
	}
	if got := do(t, h, http.MethodPost, "/api/v1/alliance", `{"name":"Solo","members":["ana"]}`, ""); got.Code != http.StatusBadRequest {
		t.Errorf("one-member alliance = %d, want 400", got.Code)
	}
}

func TestAdvanceAndEmergentChoice(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/advance", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("advance = %d: %s", rec.Code, rec.Body)
	}
	var rep engine.DayReport
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Closed != 1 || rep.Day != 2 {
		t.Errorf("report closed/day = %d/%d, want 1/2", rep.Closed, rep.Day)
	}

	if got := do(t, h, http.MethodPost, "/api/v1/emergent/choice", `{"choice":"engage"}`, ""); got.Code != http.StatusConflict {
		t.Errorf("choice with nothing pending = %d, want 409", got.Code)
	}
	if got := do(t, h, http.MethodPost, "/api/v1/emergent/choice", `{"choice":"flee"}`, ""); got.Code != http.StatusBadRequest {
		t.Errorf("invalid choice = %d, want 400", got.Code)
	}
}

func TestElimination_OnlyOnScheduledDay(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/elimination", `{"vote":""}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("elimination on day 1 = %d, want 409: %s", rec.Code, rec.Body)
	}
	if srv.Sim.GameOver || len(srv.Sim.Active()) != 4 {
		t.Errorf("off-schedule elimination changed the cast: game over %v, active %d", srv.Sim.GameOver, len(srv.Sim.Active()))
	}

	srv.Sim.Day = srv.Sim.NextElimination()
	if got := do(t, h, http.MethodPost, "/api/v1/elimination", `{"vote":""}`, ""); got.Code != http.StatusOK {
		t.Errorf("elimination on day %d = %d: %s", srv.Sim.Day, got.Code, got.Body)
	}
}

func TestEvents_Filter(t *testing.T) {
	h := newTestServer(t).Handler()
	for _, target := range []string{"ana", "ben", "cam"} {
		body := fmt.Sprintf(`{"target":%q,"content":"let's talk strategy and the vote"}`, target)
		if rec := do(t, h, http.MethodPost, "/api/v1/interact", body, ""); rec.Code != http.StatusOK {
			t.Fatalf("interact %s = %d", target, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/v1/events?agent=ben&limit=10", "", "")
	var events []memory.Event
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if len(events) == 0 {
		t.Fatal("no events for ben")
	}
	for _, e := range events {
		if !e.Involves("ben") {
			t.Errorf("event %+v does not involve ben", e)
		}
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/events?limit=x", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", rec.Code)
	}
}

func TestAdminOnly(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	if rec := do(t, h, http.MethodGet, "/api/v1/debug/vote-claims", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/debug/vote-claims", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/debug/vote-claims", "", "admin-secret"); rec.Code != http.StatusOK {
		t.Errorf("admin token = %d, want 200", rec.Code)
	}

	srv.AdminKey = ""
	h = srv.Handler()
	if rec := do(t, h, http.MethodGet, "/api/v1/debug/vote-claims", "", "admin-secret"); rec.Code != http.StatusForbidden {
		t.Errorf("admin disabled = %d, want 403", rec.Code)
	}
}

func TestSnapshotRestore(t *testing.T) {
	srv := newTestServer(t)
	store, err := persistence.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	h := srv.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/snapshot", "", "admin-secret"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("snapshot without store = %d, want 503", rec.Code)
	}
	srv.Store = store

	if rec := do(t, h, http.MethodPost, "/api/v1/restore", "", "admin-secret"); rec.Code != http.StatusNotFound {
		t.Errorf("restore empty slot = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/snapshot", "", "admin-secret"); rec.Code != http.StatusOK {
		t.Fatalf("snapshot = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/advance", "", ""); rec.Code != http.StatusOK {
		t.Fatal("advance failed")
	}
	if srv.Sim.Day != 2 {
		t.Fatalf("day = %d, want 2", srv.Sim.Day)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/restore", "", "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("restore = %d: %s", rec.Code, rec.Body)
	}
	if srv.Sim.Day != 1 {
		t.Errorf("restored day = %d, want 1", srv.Sim.Day)
	}
}

func TestRecap_Cached(t *testing.T) {
	srv := newTestServer(t)
	gen := llm.NewMockGenerator().WithResponses("Previously, on the island...")
	srv.Gen = gen
	h := srv.Handler()

	for range 2 {
		rec := do(t, h, http.MethodGet, "/api/v1/recap", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("recap = %d", rec.Code)
		}
		var r llm.Recap
		if err := json.NewDecoder(rec.Body).Decode(&r); err != nil {
			t.Fatal(err)
		}
		if r.Content != "Previously, on the island..." || r.Week != 1 {
			t.Errorf("recap = %+v", r)
		}
	}
	if gen.CallCount() != 1 {
		t.Errorf("generator calls = %d, want 1 (cached)", gen.CallCount())
	}
}

func TestStream(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	h := srv.Handler()
	if rec := do(t, h, http.MethodPost, "/api/v1/interact", `{"target":"cam","content":"hello there"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("interact = %d", rec.Code)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=nope", nil); err == nil {
		t.Fatal("dial with bad token succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=relay-secret", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// Catch-up replays the interaction.
	if !readUntil(t, conn, func(e memory.Event) bool { return e.Involves("cam") }) {
		t.Error("catch-up never replayed the interaction with cam")
	}

	// Live events follow.
	if rec := do(t, h, http.MethodPost, "/api/v1/interact", `{"target":"ana","content":"live one"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("interact = %d", rec.Code)
	}
	if !readUntil(t, conn, func(e memory.Event) bool { return e.Content == "live one" }) {
		t.Error("live event never arrived")
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(memory.Event) bool) bool {
	t.Helper()
	for range 64 {
		var e memory.Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if match(e) {
			return true
		}
	}
	return false
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrUnknownAgent, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", engine.ErrAwaitingChoice), http.StatusConflict},
		{fmt.Errorf("day 3: %w", engine.ErrNotEliminationDay), http.StatusConflict},
		{interrupt.ErrInvalidChoice, http.StatusBadRequest},
		{persistence.ErrNotFound, http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("third request passed, want limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("other IP limited")
	}
	if got := rl.RetryAfter("1.1.1.1"); got < 1 || got > 31 {
		t.Errorf("RetryAfter() = %d, want 1-31", got)
	}

	handler := RateLimitMiddleware(NewRateLimiter(1, time.Hour), func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != want {
			t.Errorf("request %d = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)
	srv.Origins = []string{"https://castaway.example"}
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://castaway.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://castaway.example" {
		t.Errorf("preflight = %d %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
