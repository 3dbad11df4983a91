package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
)

// adjust is the single path for changing how one agent feels about another.
// It writes the graph edge and, when the target is the player, mirrors the
// edge into the agent's profile so the two views never drift.
func (s *Simulation) adjust(from, to agents.AgentID, d relations.Delta, reason, note string, day int) error {
	e, err := s.Graph.Update(from, to, d, reason, note, day)
	if err != nil {
		slog.Error("relationship invariant violated", "from", from, "to", to, "reason", reason, "error", err)
		return err
	}
	if to == agents.PlayerID {
		s.mirrorProfile(from, e)
	}
	slog.Debug("relationship adjusted", "from", from, "to", to, "reason", reason,
		"trust", e.Trust, "suspicion", e.Suspicion, "closeness", e.Closeness)
	return nil
}

func (s *Simulation) mirrorProfile(id agents.AgentID, e relations.Edge) {
	a, ok := s.AgentIndex[id]
	if !ok || a.IsPlayer {
		return
	}
	a.Profile.Trust = e.Trust
	a.Profile.Suspicion = e.Suspicion
	a.Profile.Closeness = e.Closeness
}

// syncProfiles re-mirrors every agent->player edge, used after bulk graph
// operations such as decay and restore.
func (s *Simulation) syncProfiles() {
	for _, a := range s.Agents {
		if a.IsPlayer {
			continue
		}
		s.mirrorProfile(a.ID, s.Graph.Get(a.ID, agents.PlayerID))
	}
}

// record routes an event through the memory store and fans it out to
// subscribers.
func (s *Simulation) record(e memory.Event) (memory.Event, error) {
	stored, err := s.Memory.RecordEvent(e)
	if err != nil {
		slog.Error("memory invariant violated", "type", e.Type, "day", e.Day, "error", err)
		return memory.Event{}, fmt.Errorf("record %s: %w", e.Type, err)
	}
	s.publish(stored)
	return stored, nil
}

// Subscribe registers a listener for recorded events. The channel is
// buffered; slow listeners miss events rather than blocking the game.
func (s *Simulation) Subscribe() (int, <-chan memory.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	ch := make(chan memory.Event, 64)
	s.subs[s.nextSub] = ch
	return s.nextSub, ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Simulation) Unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Simulation) publish(e memory.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- e:
		default:
			slog.Debug("subscriber lagging, event dropped", "sub_id", id, "seq", e.Seq)
		}
	}
}
