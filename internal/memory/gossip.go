package memory

import (
	"fmt"
	"slices"

	"github.com/talgya/castaway/internal/agents"
)

// Gossip is an entry in the gossip ledger. SpreadTo only ever grows.
type Gossip struct {
	ID          int              `json:"id"`
	Info        string           `json:"info"`
	Source      agents.AgentID   `json:"source"`
	About       agents.AgentID   `json:"about,omitempty"`
	Day         int              `json:"day"`
	SpreadTo    []agents.AgentID `json:"spread_to"`
	Reliability Reliability      `json:"reliability"`
	Value       float64          `json:"strategic_value"`
}

// KnownBy reports whether id started or heard the gossip.
func (g Gossip) KnownBy(id agents.AgentID) bool {
	return g.Source == id || slices.Contains(g.SpreadTo, id)
}

func (g *Gossip) clone() Gossip {
	c := *g
	c.SpreadTo = append([]agents.AgentID(nil), g.SpreadTo...)
	return c
}

// AddGossip appends an entry to the ledger and returns it with its id.
func (s *Store) AddGossip(g Gossip) (Gossip, error) {
	if _, ok := s.journals[g.Source]; !ok {
		return Gossip{}, fmt.Errorf("gossip source %q: %w", g.Source, ErrUnknownParticipant)
	}
	if g.Reliability == "" {
		g.Reliability = Rumor
	}
	g.ID = len(s.gossip) + 1
	g.SpreadTo = nil
	s.gossip = append(s.gossip, &g)
	return g.clone(), nil
}

// SpreadGossip adds to to the set of agents who have heard gossip id.
// Returns true if to had not heard it before.
func (s *Store) SpreadGossip(id int, to agents.AgentID) (bool, error) {
	if id < 1 || id > len(s.gossip) {
		return false, fmt.Errorf("spread gossip %d: %w", id, ErrUnknownGossip)
	}
	if _, ok := s.journals[to]; !ok {
		return false, fmt.Errorf("spread gossip to %q: %w", to, ErrUnknownParticipant)
	}
	g := s.gossip[id-1]
	if g.KnownBy(to) {
		return false, nil
	}
	g.SpreadTo = append(g.SpreadTo, to)
	return true, nil
}

// GossipKnownBy returns every entry id started or heard, in ledger order.
func (s *Store) GossipKnownBy(id agents.AgentID) []Gossip {
	var out []Gossip
	for _, g := range s.gossip {
		if g.KnownBy(id) {
			out = append(out, g.clone())
		}
	}
	return out
}

// Gossip returns a copy of the whole ledger.
func (s *Store) Gossip() []Gossip {
	out := make([]Gossip, len(s.gossip))
	for i, g := range s.gossip {
		out[i] = g.clone()
	}
	return out
}
