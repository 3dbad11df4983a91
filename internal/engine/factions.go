// Alliance wiring: formation requests and the nightly strength recompute.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
)

// allianceBond is what founding members feel toward each other on formation.
var allianceBond = relations.Delta{Trust: 5, Closeness: 3}

// FormAlliance creates a named alliance among members and records it.
func (s *Simulation) FormAlliance(name string, members []agents.AgentID, secret bool) (social.Alliance, error) {
	if s.GameOver {
		return social.Alliance{}, ErrGameOver
	}
	for _, m := range members {
		if _, err := s.Agent(m); err != nil {
			return social.Alliance{}, err
		}
	}

	al, err := social.Form(name, members, secret, s.Day, s.isActive)
	if err != nil {
		return social.Alliance{}, err
	}
	for _, existing := range s.Alliances {
		if existing.ID == al.ID {
			return social.Alliance{}, fmt.Errorf("form %q: %w", al.Name, social.ErrDuplicateAlliance)
		}
	}

	for _, a := range al.Members {
		for _, b := range al.Members {
			if a == b {
				continue
			}
			if err := s.adjust(a, b, allianceBond, "alliance_form", al.Name, s.Day); err != nil {
				return social.Alliance{}, err
			}
		}
	}

	kind := "an alliance"
	if al.Secret {
		kind = "a secret alliance"
	}
	if _, err := s.record(memory.Event{
		Day:          s.Day,
		Type:         memory.AllianceForm,
		Participants: al.Members,
		Content:      fmt.Sprintf("%s formed %s called %s.", s.joinNames(al.Members), kind, al.Name),
		Impact:       3,
		Importance:   6,
	}); err != nil {
		return social.Alliance{}, err
	}

	s.Alliances = append(s.Alliances, al)
	slog.Info("alliance formed", "day", s.Day, "alliance", al.Name, "members", len(al.Members), "secret", al.Secret)
	return al, nil
}

// processAlliances recomputes every alliance for day.
func (s *Simulation) processAlliances(day int) []social.Change {
	res := social.UpdateAllianceTrust(social.State{
		Day:        day,
		Alliances:  s.Alliances,
		Eliminated: s.isEliminated,
		Events:     s.Memory.Query(memory.Filter{FromDay: day - social.RecentWindowDays, ToDay: day}),
	})
	s.Alliances = res.All()

	for _, ch := range res.Changes {
		if ch.Dissolved {
			slog.Info("alliance dissolved", "day", day, "alliance", ch.Name)
		}
	}
	return res.Changes
}

// LiveAlliances returns the alliances that have not dissolved.
func (s *Simulation) LiveAlliances() []social.Alliance {
	return social.Live(s.Alliances)
}

// sharedAlliances counts the live alliances a and b both belong to.
func (s *Simulation) sharedAlliances(a agents.AgentID) func(agents.AgentID) int {
	return func(b agents.AgentID) int {
		return len(social.Shared(s.Alliances, a, b))
	}
}

func (s *Simulation) joinNames(ids []agents.AgentID) string {
	out := ""
	for i, id := range ids {
		switch {
		case i == 0:
		case i == len(ids)-1:
			out += " and "
		default:
			out += ", "
		}
		out += s.nameOf(id)
	}
	return out
}
