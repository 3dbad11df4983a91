package interrupt

import (
	"testing"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
)

func TestEffects(t *testing.T) {
	conflict := Event{Day: 3, Category: Drama, Title: "T", Description: "D", Involved: []agents.AgentID{"a", "b"}}
	checkIn := Event{Day: 3, Category: CheckIn, Involved: []agents.AgentID{"a"}}
	production := Event{Day: 3, Category: Production, Involved: []agents.AgentID{"a", "b"}}

	tests := []struct {
		name   string
		ev     Event
		choice Choice
		want   map[agents.AgentID]relations.Delta
		impact float64
	}{
		{"conflict calm", conflict, Deescalate, map[agents.AgentID]relations.Delta{"a": conflictCalm, "b": conflictCalm}, 1},
		{"conflict engage", conflict, Engage, map[agents.AgentID]relations.Delta{"a": conflictFavored, "b": conflictOthers}, 4},
		{"check-in calm", checkIn, Deescalate, map[agents.AgentID]relations.Delta{"a": checkInCalm}, 1},
		{"check-in engage", checkIn, Engage, map[agents.AgentID]relations.Delta{"a": checkInEngage}, 2},
		{"production", production, Engage, map[agents.AgentID]relations.Delta{"a": productionEffect, "b": productionEffect}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Effects(tt.ev, tt.choice, agents.PlayerID)
			if out.Impact != tt.impact {
				t.Errorf("Impact = %v, want %v", out.Impact, tt.impact)
			}
			if len(out.Deltas) != len(tt.want) {
				t.Fatalf("Deltas = %v", out.Deltas)
			}
			for _, d := range out.Deltas {
				if d.Delta != tt.want[d.Agent] {
					t.Errorf("delta[%s] = %+v, want %+v", d.Agent, d.Delta, tt.want[d.Agent])
				}
			}
			if len(out.Memories) != len(tt.ev.Involved) {
				t.Fatalf("Memories = %d, want one per involved agent", len(out.Memories))
			}
			for i, m := range out.Memories {
				if m.Type != memory.EmergentEvent || !m.InvolvesAll(tt.ev.Involved[i], agents.PlayerID) {
					t.Errorf("memory[%d] = %+v", i, m)
				}
			}
		})
	}
}

func TestEffects_CheckInAlwaysPositive(t *testing.T) {
	ev := Event{Category: CheckIn, Involved: []agents.AgentID{"a"}}
	for _, c := range []Choice{Deescalate, Engage} {
		d := Effects(ev, c, agents.PlayerID).Deltas[0].Delta
		if d.Trust <= 0 || d.Suspicion >= 0 || d.Closeness <= 0 {
			t.Errorf("check-in %s delta = %+v, want net positive", c, d)
		}
	}
	calm := Effects(ev, Deescalate, agents.PlayerID).Deltas[0].Delta
	engage := Effects(ev, Engage, agents.PlayerID).Deltas[0].Delta
	if engage.Trust <= calm.Trust {
		t.Error("engage should outweigh de-escalate on a check-in")
	}
}
