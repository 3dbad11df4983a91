package autopilot

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/api"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/llm"
)

func newGame(t *testing.T) (*api.Server, *httptest.Server) {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.EmergentChance = 1e-9
	cast := []*agents.Agent{
		{ID: agents.PlayerID, Name: "You", IsPlayer: true},
		agents.NewContestant("ana", "Ana", agents.ArchFloater, nil),
		agents.NewContestant("ben", "Ben", agents.ArchVillain, nil),
		agents.NewContestant("cam", "Cam", agents.ArchLoyalist, nil),
	}
	sim, err := engine.NewFromCast(cfg, cast, entropy.NewStreams(3))
	if err != nil {
		t.Fatal(err)
	}
	srv := &api.Server{Sim: sim, Slot: "test"}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func summaries() []engine.AgentSummary {
	return []engine.AgentSummary{
		{ID: agents.PlayerID, Name: "You", IsPlayer: true, Standing: 1},
		{ID: "ana", Name: "Ana", Trust: 30, Suspicion: 5, Standing: 5},
		{ID: "ben", Name: "Ben", Trust: -20, Suspicion: 70, Standing: 4},
		{ID: "cam", Name: "Cam", Trust: 0, Suspicion: 20, Standing: 3},
	}
}

func TestTriage(t *testing.T) {
	tests := []struct {
		name   string
		day    int
		immune agents.AgentID
		want   string
	}{
		{"vote tomorrow", 6, "", DangerCritical},
		{"vote far off", 2, "", DangerWarning},
		{"immune", 6, agents.PlayerID, DangerSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &GameSnapshot{
				Status: engine.Status{Day: tt.day, NextElimination: 7, Active: 4, Immune: tt.immune},
				Agents: summaries(),
			}
			h := Triage(snap)
			if h.Danger != tt.want {
				t.Errorf("Danger = %s, want %s", h.Danger, tt.want)
			}
			if h.Rank != 4 || h.MostSuspicious != "ben" || h.WarmestAlly != "ana" {
				t.Errorf("Triage() = %+v, want rank 4, suspicious ben, ally ana", h)
			}
		})
	}
}

func TestHeuristic_PendingEvent(t *testing.T) {
	tests := []struct {
		name     string
		category interrupt.Category
		favored  agents.AgentID
		want     interrupt.Choice
	}{
		{"trusted ally", interrupt.Drama, "ana", interrupt.Engage},
		{"hostile favored", interrupt.Drama, "ben", interrupt.Deescalate},
		{"check-in", interrupt.CheckIn, "ben", interrupt.Engage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &GameSnapshot{
				Status:  engine.Status{Day: 2, NextElimination: 7, Active: 4},
				Agents:  summaries(),
				Pending: &interrupt.Event{Category: tt.category, Involved: []agents.AgentID{tt.favored, "cam"}},
			}
			d := Heuristic(snap, Triage(snap), &CycleMemory{})
			if d.Action != ActionChoose || d.Choice != tt.want {
				t.Errorf("Heuristic() = %+v, want choose %s", d, tt.want)
			}
		})
	}
}

func TestHeuristic_MendOncePerDay(t *testing.T) {
	snap := &GameSnapshot{
		Status: engine.Status{Day: 6, NextElimination: 7, Active: 4},
		Agents: summaries(),
	}
	mem := &CycleMemory{}
	d := Heuristic(snap, Triage(snap), mem)
	if d.Action != ActionMend || d.Target != "ben" {
		t.Fatalf("Heuristic() = %+v, want mend ben", d)
	}
	if !strings.Contains(d.Message, "Ben") {
		t.Errorf("message = %q, want it addressed to Ben", d.Message)
	}

	mem.Record(CycleRecord{Day: 6, Action: ActionMend, Target: "ben"})
	if d := Heuristic(snap, Triage(snap), mem); d.Action != ActionAdvance {
		t.Errorf("second Heuristic() = %+v, want advance", d)
	}

	snap.Status.GameOver = true
	if d := Heuristic(snap, Triage(snap), mem); d.Action != ActionNone {
		t.Errorf("game over Heuristic() = %+v, want none", d)
	}
}

func TestDecide_LLM(t *testing.T) {
	snap := &GameSnapshot{
		Status: engine.Status{Day: 6, NextElimination: 7, Active: 4},
		Agents: summaries(),
	}

	tests := []struct {
		name       string
		gen        llm.Generator
		wantAction string
		wantTarget agents.AgentID
	}{
		{"accepted", llm.NewMockGenerator().WithResponses("```json\n{\"action\":\"mend\",\"target\":\"cam\",\"message\":\"Cam, let's talk.\",\"rationale\":\"swing vote\"}\n```"), ActionMend, "cam"},
		{"unknown target", llm.NewMockGenerator().WithResponses(`{"action":"mend","target":"zed"}`), ActionMend, "ben"},
		{"choose without event", llm.NewMockGenerator().WithResponses(`{"action":"choose","choice":"engage"}`), ActionMend, "ben"},
		{"garbage", llm.NewMockGenerator().WithResponses("sure thing"), ActionMend, "ben"},
		{"error", llm.NewMockGenerator().WithError(errors.New("down")), ActionMend, "ben"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(context.Background(), tt.gen, snap, &CycleMemory{})
			if d.Action != tt.wantAction || d.Target != tt.wantTarget {
				t.Errorf("Decide() = %+v, want %s %s", d, tt.wantAction, tt.wantTarget)
			}
		})
	}
}

func TestEnforceGuardrails_ClampsMessage(t *testing.T) {
	snap := &GameSnapshot{Agents: summaries()}
	d := &Decision{Action: ActionMend, Target: "ana", Message: strings.Repeat("a", 500), Choice: interrupt.Engage}
	if err := enforceGuardrails(d, snap); err != nil {
		t.Fatalf("enforceGuardrails() error: %v", err)
	}
	if len(d.Message) != maxMessageLen || d.Choice != "" {
		t.Errorf("decision = %d chars, choice %q", len(d.Message), d.Choice)
	}

	snap.Pending = &interrupt.Event{Category: interrupt.Drama, Involved: []agents.AgentID{"ana"}}
	if err := enforceGuardrails(&Decision{Action: ActionAdvance}, snap); err == nil {
		t.Error("advance with a pending event passed guardrails")
	}
}

func TestCycleMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	mem := LoadMemory(path)
	for day := 1; day <= 12; day++ {
		mem.Record(CycleRecord{Day: day, Action: ActionAdvance, Danger: DangerSafe})
	}
	if len(mem.Records) != maxRecords || mem.Records[0].Day != 3 {
		t.Fatalf("records = %d starting day %d, want %d starting day 3", len(mem.Records), mem.Records[0].Day, maxRecords)
	}
	if got := strings.Count(mem.FormatForPrompt(), "\n- "); got != promptRecords {
		t.Errorf("prompt lines = %d, want %d", got, promptRecords)
	}
	if err := mem.Save(); err != nil {
		t.Fatal(err)
	}

	loaded := LoadMemory(path)
	if len(loaded.Records) != maxRecords || loaded.Records[9].Day != 12 {
		t.Errorf("loaded %d records, want %d ending day 12", len(loaded.Records), maxRecords)
	}
}

func TestPilot_Cycle(t *testing.T) {
	srv, ts := newGame(t)
	p := &Pilot{
		Observer: NewObserver(ts.URL),
		Actor:    NewActor(ts.URL, ""),
		Memory:   LoadMemory(""),
	}
	ctx := context.Background()
	if err := p.Observer.WaitReady(ctx); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		d, err := p.Cycle(ctx)
		if err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
		if d.Action == ActionNone {
			break
		}
	}

	if srv.Sim.Day == 1 {
		t.Error("day never advanced")
	}
	if len(p.Memory.Records) == 0 {
		t.Error("no cycles recorded")
	}
}

func TestPilot_DryRun(t *testing.T) {
	srv, ts := newGame(t)
	p := &Pilot{
		Observer: NewObserver(ts.URL),
		Actor:    NewActor(ts.URL, ""),
		Memory:   LoadMemory(""),
		DryRun:   true,
	}
	if _, err := p.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if srv.Sim.Day != 1 {
		t.Errorf("day = %d after dry run, want 1", srv.Sim.Day)
	}
}

func TestObserver_Error(t *testing.T) {
	o := NewObserver("http://127.0.0.1:1")
	if _, err := o.Observe(context.Background()); err == nil {
		t.Error("Observe() error = nil against a closed port")
	}
}
