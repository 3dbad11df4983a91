// Ambient life: unscripted NPC interactions between the player's scenes.
// Which pairs meet and how warmly is coherent noise over (pair, day), so a
// seed replays the same house dynamics.
package engine

import (
	"fmt"
	"math"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
)

// Ambient tuning.
const (
	ambientMeetThreshold = 0.62 // noise above this means the pair spends time together
	ambientPairScale     = 0.37
	ambientDayScale      = 0.21
	ambientWarmOffset    = 173.0

	schemeWarmth       = -0.4
	loyalTalkWarmth    = 0.6
	gossipSpreadChance = 0.25
	gossipWindowDays   = 3
	betrayalStrength   = 35.0
	betrayalChance     = 0.1
)

// processRelationships runs the day's ambient interactions.
func (s *Simulation) processRelationships(day int) ([]memory.Event, error) {
	var out []memory.Event
	npcs := s.activeNPCs()

	for i := 0; i < len(npcs); i++ {
		for j := i + 1; j < len(npcs); j++ {
			a, b := npcs[i], npcs[j]
			meet, warmth := s.pairNoise(a.ID, b.ID, day)
			if meet < ambientMeetThreshold {
				continue
			}
			evs, err := s.interactAmbient(a, b, warmth, day)
			if err != nil {
				return out, err
			}
			out = append(out, evs...)
		}
	}

	spread, err := s.spreadGossip(day)
	if err != nil {
		return out, err
	}
	out = append(out, spread...)

	betrayals, err := s.processBetrayals(day)
	if err != nil {
		return out, err
	}
	return append(out, betrayals...), nil
}

// pairNoise returns the meeting value in [0, 1] and warmth in [-1, 1].
func (s *Simulation) pairNoise(a, b agents.AgentID, day int) (meet, warmth float64) {
	x := float64(pairKey(a, b)) * ambientPairScale
	y := float64(day) * ambientDayScale
	meet = s.noise.Eval2(x, y)
	warmth = s.noise.Eval2(x+ambientWarmOffset, y)*2 - 1
	return meet, warmth
}

func pairKey(a, b agents.AgentID) int {
	if b < a {
		a, b = b, a
	}
	h := 17
	for _, r := range string(a) + "|" + string(b) {
		h = (h*31 + int(r)) % 100003
	}
	return h
}

func (s *Simulation) interactAmbient(a, b *agents.Agent, warmth float64, day int) ([]memory.Event, error) {
	pair := []agents.AgentID{a.ID, b.ID}
	mag := math.Abs(warmth)

	switch {
	case warmth > 0 && len(social.Shared(s.Alliances, a.ID, b.ID)) > 0:
		if err := s.adjustBoth(a.ID, b.ID, relations.Delta{Trust: 3, Closeness: 2}, "alliance_meeting", day); err != nil {
			return nil, err
		}
		e, err := s.record(memory.Event{
			Day:          day,
			Type:         memory.AllianceMeet,
			Participants: pair,
			Content:      fmt.Sprintf("%s and %s met in secret to go over the numbers.", a.Name, b.Name),
			Impact:       2,
			Importance:   4,
		})
		return []memory.Event{e}, err

	case warmth > 0.2:
		content := fmt.Sprintf("%s and %s spent the afternoon talking.", a.Name, b.Name)
		if warmth > loyalTalkWarmth {
			content = fmt.Sprintf("%s and %s promised to trust each other to the end.", a.Name, b.Name)
		}
		d := relations.Delta{Trust: 4 * warmth, Closeness: 3 * warmth}
		if err := s.adjustBoth(a.ID, b.ID, d, "conversation", day); err != nil {
			return nil, err
		}
		e, err := s.record(memory.Event{
			Day:          day,
			Type:         memory.Conversation,
			Participants: pair,
			Content:      content,
			Impact:       3 * warmth,
			Importance:   2,
		})
		return []memory.Event{e}, err

	case warmth < schemeWarmth:
		// The more deceptive of the two does the scheming.
		schemer, mark := a, b
		if b.HasTrait(agents.TraitDeceptive) && !a.HasTrait(agents.TraitDeceptive) {
			schemer, mark = b, a
		}
		d := relations.Delta{Trust: -3 * mag, Suspicion: 6 * mag}
		if err := s.adjust(mark.ID, schemer.ID, d, "scheme", "caught whispering", day); err != nil {
			return nil, err
		}
		e, err := s.record(memory.Event{
			Day:          day,
			Type:         memory.Scheme,
			Participants: []agents.AgentID{schemer.ID, mark.ID},
			Content:      fmt.Sprintf("%s was overheard plotting against %s.", schemer.Name, mark.Name),
			Impact:       -4 * mag,
			Importance:   5,
			Reliability:  memory.Rumor,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.Memory.AddGossip(memory.Gossip{
			Info:        fmt.Sprintf("%s is coming after %s.", schemer.Name, mark.Name),
			Source:      mark.ID,
			About:       schemer.ID,
			Day:         day,
			Reliability: memory.Rumor,
			Value:       5 * mag,
		}); err != nil {
			return nil, err
		}
		return []memory.Event{e}, nil

	default:
		d := relations.Delta{Trust: warmth, Closeness: warmth}
		if err := s.adjustBoth(a.ID, b.ID, d, "direct_message", day); err != nil {
			return nil, err
		}
		e, err := s.record(memory.Event{
			Day:          day,
			Type:         memory.DirectMessage,
			Participants: pair,
			Content:      fmt.Sprintf("%s slipped %s a quick word at the well.", a.Name, b.Name),
			Impact:       warmth,
			Importance:   1,
		})
		return []memory.Event{e}, err
	}
}

func (s *Simulation) adjustBoth(a, b agents.AgentID, d relations.Delta, reason string, day int) error {
	if err := s.adjust(a, b, d, reason, "", day); err != nil {
		return err
	}
	return s.adjust(b, a, d, reason, "", day)
}

// spreadGossip gives every holder of recent gossip a chance to pass it to one
// active contestant who hasn't heard it.
func (s *Simulation) spreadGossip(day int) ([]memory.Event, error) {
	var out []memory.Event
	for _, g := range s.Memory.Gossip() {
		if day-g.Day > gossipWindowDays {
			continue
		}
		for _, teller := range s.activeNPCs() {
			if !g.KnownBy(teller.ID) || !entropy.Chance(s.streams.Decision, gossipSpreadChance) {
				continue
			}
			var fresh []agents.AgentID
			for _, h := range s.activeNPCs() {
				if h.ID != teller.ID && !g.KnownBy(h.ID) && h.ID != g.About {
					fresh = append(fresh, h.ID)
				}
			}
			if len(fresh) == 0 {
				continue
			}
			hearer := entropy.Pick(s.streams.Decision, fresh)
			if _, err := s.Memory.SpreadGossip(g.ID, hearer); err != nil {
				return out, err
			}
			g.SpreadTo = append(g.SpreadTo, hearer)

			if g.About != "" && g.About != hearer && s.isActive(g.About) {
				if err := s.adjust(hearer, g.About, relations.Delta{Suspicion: 2 + g.Value/2}, "gossip", g.Info, day); err != nil {
					return out, err
				}
				note := fmt.Sprintf("Day %d: %s told me %q", day, teller.Name, g.Info)
				if err := s.Memory.AddNote(hearer, g.About, note); err != nil {
					return out, err
				}
			}
			e, err := s.record(memory.Event{
				Day:          day,
				Type:         memory.GossipSpread,
				Participants: []agents.AgentID{teller.ID, hearer},
				Content:      g.Info,
				Impact:       -1,
				Importance:   3,
				Reliability:  g.Reliability,
			})
			if err != nil {
				return out, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// processBetrayals lets a weak alliance crack: one member may turn on another.
func (s *Simulation) processBetrayals(day int) ([]memory.Event, error) {
	var out []memory.Event
	for _, al := range social.Live(s.Alliances) {
		if al.Strength >= betrayalStrength {
			continue
		}
		var members []*agents.Agent
		for _, id := range al.ActiveMembers(s.isEliminated) {
			if a := s.AgentIndex[id]; a != nil && !a.IsPlayer {
				members = append(members, a)
			}
		}
		if len(members) < 1 || len(al.ActiveMembers(s.isEliminated)) < 2 {
			continue
		}
		if !entropy.Chance(s.streams.Decision, betrayalChance) {
			continue
		}

		traitor := entropy.Pick(s.streams.Decision, members)
		var victims []agents.AgentID
		for _, id := range al.ActiveMembers(s.isEliminated) {
			if id != traitor.ID {
				victims = append(victims, id)
			}
		}
		victim := entropy.Pick(s.streams.Decision, victims)

		if err := s.adjust(victim, traitor.ID, relations.Delta{Trust: -15, Suspicion: 15, Closeness: -10}, "betrayal", al.Name, day); err != nil {
			return out, err
		}
		if s.Memory.HasJournal(victim) {
			if err := s.Memory.AddNote(victim, traitor.ID, fmt.Sprintf("Day %d: sold out %s", day, al.Name)); err != nil {
				return out, err
			}
		}
		e, err := s.record(memory.Event{
			Day:          day,
			Type:         memory.Betrayal,
			Participants: []agents.AgentID{traitor.ID, victim},
			Content:      fmt.Sprintf("%s broke ranks with %s and leaked the plans of %s.", traitor.Name, s.nameOf(victim), al.Name),
			Impact:       -7,
			Importance:   8,
		})
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Simulation) nameOf(id agents.AgentID) string {
	if a, ok := s.AgentIndex[id]; ok {
		return a.Name
	}
	return string(id)
}
