package interrupt

import (
	"log/slog"
	"slices"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/social"
)

// Trigger tuning.
const (
	DefaultChance = 0.35

	dramaMinActive         = 3
	checkInCoin            = 0.5
	panicWindowDays        = 2
	panicSuspicion         = 60.0
	productionRatingCutoff = 4.0
	productionMinNPCs      = 2
)

// State is what the interruptor reads to propose an event.
type State struct {
	Day             int
	Player          agents.AgentID
	Agents          []*agents.Agent
	Alliances       []social.Alliance
	NextElimination int
	Rating          float64
}

func (s State) activeNPCs() []*agents.Agent {
	var out []*agents.Agent
	for _, a := range s.Agents {
		if a.Active() && a.ID != s.Player {
			out = append(out, a)
		}
	}
	return out
}

func (s State) activeCount() int {
	n := 0
	for _, a := range s.Agents {
		if a.Active() {
			n++
		}
	}
	return n
}

// Interruptor is a two-state machine: idle, or awaiting a choice on one
// pending event.
type Interruptor struct {
	chance  float64
	pending *Event
}

// New creates an idle interruptor. A chance outside (0, 1] uses DefaultChance.
func New(chance float64) *Interruptor {
	if chance <= 0 || chance > 1 {
		chance = DefaultChance
	}
	return &Interruptor{chance: chance}
}

// Chance returns the trigger probability.
func (i *Interruptor) Chance() float64 {
	return i.chance
}

// Awaiting reports whether an event is pending.
func (i *Interruptor) Awaiting() bool {
	return i.pending != nil
}

// Pending returns the pending event, if any.
func (i *Interruptor) Pending() (Event, bool) {
	if i.pending == nil {
		return Event{}, false
	}
	return *i.pending, true
}

// Clear drops any pending event without applying it. Used when a game is
// restored, since pending events are not persisted.
func (i *Interruptor) Clear() {
	i.pending = nil
}

// Roll is called on a day advance. It may move the interruptor from idle to
// awaiting a choice. Every decision-affecting draw comes from
// streams.Decision in a fixed order: trigger, candidate generation, category
// pick, involved agents. Titles and descriptions use streams.Flavor only.
// While an event is already pending Roll returns it unchanged.
func (i *Interruptor) Roll(s State, streams entropy.Streams) (Event, bool) {
	if i.pending != nil {
		return *i.pending, true
	}
	if !entropy.Chance(streams.Decision, i.chance) {
		return Event{}, false
	}

	cands := Candidates(s, streams.Decision)
	if len(cands) == 0 {
		return Event{}, false
	}
	cat := entropy.Pick(streams.Decision, cands)
	involved := pickInvolved(cat, s, streams.Decision)
	if len(involved) == 0 {
		return Event{}, false
	}

	ev := Event{
		ID:       eventID(s.Day, cat, involved),
		Day:      s.Day,
		Category: cat,
		Involved: involved,
	}
	ev.Title, ev.Description, ev.Impact = describe(cat, involved, s, streams.Flavor)
	i.pending = &ev

	slog.Debug("emergent event proposed", "day", s.Day, "category", cat, "involved", involved)
	return ev, true
}

// Candidates lists the categories eligible under s. The check-in coin is
// drawn from decision.
func Candidates(s State, decision entropy.Source) []Category {
	var out []Category
	npcs := s.activeNPCs()

	if s.activeCount() >= dramaMinActive && len(npcs) >= 2 {
		out = append(out, Drama)
	}
	if len(crisisAlliances(s)) > 0 {
		out = append(out, AllianceCrisis)
	}
	if len(npcs) >= 1 && entropy.Chance(decision, checkInCoin) {
		out = append(out, CheckIn)
	}
	if until := s.NextElimination - s.Day; until >= 0 && until <= panicWindowDays && len(panicked(s)) > 0 {
		out = append(out, Panic)
	}
	if s.Rating < productionRatingCutoff && len(npcs) >= productionMinNPCs {
		out = append(out, Production)
	}
	return out
}

func crisisAlliances(s State) []social.Alliance {
	eliminated := func(id agents.AgentID) bool {
		for _, a := range s.Agents {
			if a.ID == id {
				return !a.Active()
			}
		}
		return true
	}
	var out []social.Alliance
	for _, al := range social.Live(s.Alliances) {
		if len(al.ActiveMembers(eliminated)) >= 2 {
			out = append(out, al)
		}
	}
	return out
}

func panicked(s State) []agents.AgentID {
	var out []agents.AgentID
	for _, a := range s.activeNPCs() {
		if a.Profile.Suspicion > panicSuspicion {
			out = append(out, a.ID)
		}
	}
	return out
}

func pickInvolved(cat Category, s State, decision entropy.Source) []agents.AgentID {
	npcs := s.activeNPCs()
	ids := agents.IDs(npcs)

	switch cat {
	case Drama, Production:
		return pickDistinct(ids, 2, decision)
	case CheckIn:
		return pickDistinct(ids, 1, decision)
	case AllianceCrisis:
		al := entropy.Pick(decision, crisisAlliances(s))
		var out []agents.AgentID
		for _, m := range al.Members {
			if m != s.Player && slices.Contains(ids, m) {
				out = append(out, m)
			}
		}
		return out
	case Panic:
		return panicked(s)
	}
	return nil
}

func pickDistinct(ids []agents.AgentID, n int, src entropy.Source) []agents.AgentID {
	pool := append([]agents.AgentID(nil), ids...)
	var out []agents.AgentID
	for len(out) < n && len(pool) > 0 {
		k := src.IntN(len(pool))
		out = append(out, pool[k])
		pool = append(pool[:k], pool[k+1:]...)
	}
	return out
}
