package interrupt

import (
	"fmt"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
)

// Effect tables, applied to each involved agent's stance toward the player.
var (
	conflictCalm     = relations.Delta{Trust: 5, Suspicion: -5, Closeness: 2}
	conflictFavored  = relations.Delta{Trust: 10, Suspicion: -8, Closeness: 5}
	conflictOthers   = relations.Delta{Trust: -8, Suspicion: 10, Closeness: -5}
	checkInCalm      = relations.Delta{Trust: 4, Suspicion: -2, Closeness: 4}
	checkInEngage    = relations.Delta{Trust: 8, Suspicion: -4, Closeness: 8}
	productionEffect = relations.Delta{Suspicion: 3}
)

// AgentDelta is the change one involved agent takes toward the player.
type AgentDelta struct {
	Agent agents.AgentID  `json:"agent"`
	Delta relations.Delta `json:"delta"`
}

// Outcome is the durable consequence of a resolved event.
type Outcome struct {
	Event    Event          `json:"event"`
	Choice   Choice         `json:"choice"`
	Deltas   []AgentDelta   `json:"deltas"`
	Memories []memory.Event `json:"memories"`
	Impact   float64        `json:"impact"` // feeds the ratings engine
}

// Resolve applies choice to the pending event and returns to idle. The
// returned outcome still has to be written through the relationship graph
// and memory store by the caller.
func (i *Interruptor) Resolve(choice Choice, player agents.AgentID) (Outcome, error) {
	if i.pending == nil {
		return Outcome{}, ErrNoPendingEvent
	}
	if choice != Deescalate && choice != Engage {
		return Outcome{}, fmt.Errorf("resolve %q: %w", choice, ErrInvalidChoice)
	}

	ev := *i.pending
	i.pending = nil
	return Effects(ev, choice, player), nil
}

// Effects computes the outcome of choice on ev without touching any state.
func Effects(ev Event, choice Choice, player agents.AgentID) Outcome {
	out := Outcome{Event: ev, Choice: choice, Impact: outcomeImpact(ev.Category, choice)}
	favored := ev.Favored()

	for _, id := range ev.Involved {
		d := deltaFor(ev.Category, choice, id == favored)
		out.Deltas = append(out.Deltas, AgentDelta{Agent: id, Delta: d})

		participants := []agents.AgentID{id}
		if player != "" && player != id {
			participants = append(participants, player)
		}
		out.Memories = append(out.Memories, memory.Event{
			Day:          ev.Day,
			Type:         memory.EmergentEvent,
			Participants: participants,
			Content:      fmt.Sprintf("%s: %s The player chose to %s.", ev.Title, ev.Description, choiceVerb(choice)),
			Impact:       (d.Trust - d.Suspicion) / 4,
			Reliability:  memory.Confirmed,
			Importance:   importanceFor(ev.Category),
		})
	}
	return out
}

func deltaFor(c Category, choice Choice, favored bool) relations.Delta {
	switch {
	case c == Production:
		return productionEffect
	case c == CheckIn && choice == Engage:
		return checkInEngage
	case c == CheckIn:
		return checkInCalm
	case choice == Deescalate:
		return conflictCalm
	case favored:
		return conflictFavored
	default:
		return conflictOthers
	}
}

func outcomeImpact(c Category, choice Choice) float64 {
	switch {
	case c == Production:
		return -1
	case c == CheckIn && choice == Engage:
		return 2
	case c == CheckIn:
		return 1
	case choice == Engage:
		return 4
	default:
		return 1
	}
}

func importanceFor(c Category) float64 {
	switch c {
	case CheckIn:
		return 4
	case Production:
		return 5
	default:
		return 6
	}
}

func choiceVerb(c Choice) string {
	if c == Engage {
		return "engage head-on"
	}
	return "de-escalate"
}
