// Player actions: conversations, promises, secrets, confessionals, and
// responses to emergent events.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/ratings"
	"github.com/talgya/castaway/internal/relations"
)

// Tone is the emotional register of a player message.
type Tone string

const (
	ToneFriendly   Tone = "friendly"
	ToneFlirty     Tone = "flirty"
	ToneAggressive Tone = "aggressive"
	ToneStrategic  Tone = "strategic"
	ToneNeutral    Tone = "neutral"
)

// Action categories.
const (
	CategoryConversation  = "conversation"
	CategoryDirectMessage = "direct_message"
	CategoryPromise       = "promise"
	CategorySecret        = "secret"
)

var toneWords = map[Tone][]string{
	ToneAggressive: {"liar", "snake", "idiot", "stupid", "shut up", "back off", "hate", "fake"},
	ToneFlirty:     {"cute", "gorgeous", "date", "wink", "handsome", "beautiful", "crush"},
	ToneStrategic:  {"vote", "numbers", "alliance", "target", "blindside", "majority", "plan", "jury"},
	ToneFriendly:   {"thank", "please", "love", "friend", "glad", "sorry", "got your back", "trust"},
}

// toneOrder fixes precedence when several tones match.
var toneOrder = []Tone{ToneAggressive, ToneFlirty, ToneStrategic, ToneFriendly}

// ClassifyTone reads a message's tone from its wording and shouting.
func ClassifyTone(content string) Tone {
	content = strings.TrimSpace(content)
	if content == "" {
		return ToneNeutral
	}

	upper, letters := 0, 0
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters >= 8 && upper*100/letters > 60 {
		return ToneAggressive
	}

	lower := strings.ToLower(content)
	for _, t := range toneOrder {
		for _, w := range toneWords[t] {
			if strings.Contains(lower, w) {
				return t
			}
		}
	}
	return ToneNeutral
}

// ParseTone accepts a tone name; anything unrecognized is empty.
func ParseTone(s string) Tone {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneFriendly, ToneFlirty, ToneAggressive, ToneStrategic, ToneNeutral:
		return t
	}
	return ""
}

// PlayerAction is a player-authored interaction with one NPC.
type PlayerAction struct {
	Target   agents.AgentID `json:"target"`
	Content  string         `json:"content"`
	Tone     Tone           `json:"tone,omitempty"`
	Category string         `json:"category,omitempty"`
}

// Reaction is the outcome of a player action.
type Reaction struct {
	Target agents.AgentID  `json:"target"`
	Tone   Tone            `json:"tone"`
	Delta  relations.Delta `json:"delta"`
	Edge   relations.Edge  `json:"edge"`
	Event  memory.Event    `json:"event"`
	Rating ratings.Update  `json:"rating"`
}

// toneDelta is how an NPC's stance toward the player moves for a tone,
// shaped by the NPC's disposition.
func toneDelta(t Tone, npc *agents.Agent) relations.Delta {
	var d relations.Delta
	switch t {
	case ToneFriendly:
		d = relations.Delta{Trust: 4, Suspicion: -1, Closeness: 3}
	case ToneFlirty:
		d = relations.Delta{Trust: 1, Closeness: 5}
		if npc.HasTrait(agents.TraitCharming) || npc.HasTrait(agents.TraitSocial) {
			d.Closeness += 3
		}
	case ToneAggressive:
		d = relations.Delta{Trust: -6, Suspicion: 6, Closeness: -4}
		if npc.HasTrait(agents.TraitVolatile) {
			d = d.Scale(1.5)
		}
	case ToneStrategic:
		d = relations.Delta{Trust: 2, Suspicion: 2}
		if npc.HasTrait(agents.TraitStrategic) {
			d = relations.Delta{Trust: 4, Closeness: 1}
		}
	default:
		d = relations.Delta{Trust: 1, Closeness: 1}
	}
	if npc.HasTrait(agents.TraitParanoid) && d.Suspicion >= 0 {
		d.Suspicion += 2
	}
	return d
}

func toneEntertainment(t Tone) float64 {
	switch t {
	case ToneAggressive:
		return 8
	case ToneFlirty:
		return 6
	case ToneStrategic:
		return 4
	case ToneFriendly:
		return 2
	}
	return 1
}

// Interact applies a player action to its target.
func (s *Simulation) Interact(act PlayerAction) (Reaction, error) {
	if s.GameOver {
		return Reaction{}, ErrGameOver
	}
	npc, err := s.activeNPC(act.Target)
	if err != nil {
		return Reaction{}, err
	}
	if act.Tone == "" {
		act.Tone = ClassifyTone(act.Content)
	}
	if act.Category == "" {
		act.Category = CategoryConversation
	}

	d := toneDelta(act.Tone, npc)
	ev := memory.Event{
		Day:          s.Day,
		Type:         memory.Conversation,
		Participants: []agents.AgentID{agents.PlayerID, npc.ID},
		Content:      act.Content,
		Importance:   3,
	}

	switch act.Category {
	case CategoryConversation:
	case CategoryDirectMessage:
		ev.Type = memory.DirectMessage
	case CategoryPromise:
		ev.Type = memory.PromiseMade
		ev.Importance = 5
		d.Trust += 5
		if _, err := s.Memory.MakePromise(agents.PlayerID, npc.ID, act.Content, s.Day); err != nil {
			return Reaction{}, err
		}
	case CategorySecret:
		ev.Type = memory.SecretShared
		ev.Importance = 6
		d.Trust += 3
		d.Closeness += 6
		if err := s.shareSecret(npc, act.Content); err != nil {
			return Reaction{}, err
		}
	default:
		return Reaction{}, fmt.Errorf("unknown action category %q", act.Category)
	}
	ev.Impact = (d.Trust + d.Closeness - d.Suspicion) / 3

	if err := s.adjust(npc.ID, agents.PlayerID, d, string(ev.Type), string(act.Tone), s.Day); err != nil {
		return Reaction{}, err
	}
	stored, err := s.record(ev)
	if err != nil {
		return Reaction{}, err
	}

	influence := 1.0
	if act.Tone == ToneStrategic || act.Category == CategoryPromise {
		influence = 3
	}
	upd := ratings.ApplyReaction(s.Ratings.Current, ratings.Reaction{
		Entertainment: toneEntertainment(act.Tone),
		Influence:     influence,
		Trust:         d.Trust,
		Suspicion:     d.Suspicion,
	})
	if err := s.Ratings.Record(s.Day, upd); err != nil {
		return Reaction{}, err
	}

	slog.Debug("player interaction", "day", s.Day, "target", npc.ID, "tone", act.Tone, "category", act.Category)
	return Reaction{
		Target: npc.ID,
		Tone:   act.Tone,
		Delta:  d,
		Edge:   s.Graph.Get(npc.ID, agents.PlayerID),
		Event:  stored,
		Rating: upd,
	}, nil
}

// shareSecret puts the player's secret in the NPC's journal. Deceptive NPCs
// may turn it into gossip.
func (s *Simulation) shareSecret(npc *agents.Agent, text string) error {
	if err := s.Memory.AddSecret(npc.ID, memory.Secret{Text: text, Day: s.Day, About: []agents.AgentID{agents.PlayerID}}); err != nil {
		return err
	}
	if !npc.HasTrait(agents.TraitDeceptive) || !entropy.Chance(s.streams.Decision, 0.5) {
		return nil
	}
	_, err := s.Memory.AddGossip(memory.Gossip{
		Info:        fmt.Sprintf("%s told %s a secret: %q", s.Player().Name, npc.Name, truncate(text, 80)),
		Source:      npc.ID,
		About:       agents.PlayerID,
		Day:         s.Day,
		Reliability: memory.Confirmed,
		Value:       6,
	})
	return err
}

// ResolvePromise marks one of the player's promises kept or broken and lets
// the recipient react.
func (s *Simulation) ResolvePromise(promiseID int, kept bool) (memory.Promise, error) {
	p, err := s.Memory.ResolvePromise(agents.PlayerID, promiseID, kept)
	if err != nil {
		return memory.Promise{}, err
	}
	if !s.isActive(p.To) {
		return p, nil
	}

	d := relations.Delta{Trust: 6, Closeness: 2}
	typ, impact := memory.PromiseMade, 3.0
	content := fmt.Sprintf("%s kept a promise to %s.", s.Player().Name, s.nameOf(p.To))
	if p.State == memory.PromiseBroken {
		d = relations.Delta{Trust: -20, Suspicion: 15, Closeness: -10}
		typ, impact = memory.Betrayal, -8
		content = fmt.Sprintf("%s broke a promise to %s.", s.Player().Name, s.nameOf(p.To))
	}
	if err := s.adjust(p.To, agents.PlayerID, d, string(typ), p.Text, s.Day); err != nil {
		return p, err
	}
	_, err = s.record(memory.Event{
		Day:          s.Day,
		Type:         typ,
		Participants: []agents.AgentID{agents.PlayerID, p.To},
		Content:      content,
		Impact:       impact,
		Importance:   7,
	})
	return p, err
}

// ConfessionalResult is the outcome of a confessional.
type ConfessionalResult struct {
	Tone     Tone           `json:"tone"`
	Impact   float64        `json:"impact"`
	Audience float64        `json:"audience"`
	Aired    bool           `json:"aired"`
	Event    memory.Event   `json:"event"`
	Rating   ratings.Update `json:"rating"`
}

// Confessional records a private to-camera moment. Whether it airs is a
// coin flip on the decision stream.
func (s *Simulation) Confessional(content string) (ConfessionalResult, error) {
	if s.GameOver {
		return ConfessionalResult{}, ErrGameOver
	}
	tone := ClassifyTone(content)
	impact := map[Tone]float64{ToneAggressive: 4, ToneStrategic: 3, ToneFlirty: 2, ToneFriendly: 1}[tone]
	audience := s.audienceScore(content)
	aired := entropy.Chance(s.streams.Decision, 0.5)

	importance := 3.0
	if aired {
		importance = 5
	}
	ev, err := s.record(memory.Event{
		Day:          s.Day,
		Type:         memory.Confessional,
		Participants: []agents.AgentID{agents.PlayerID},
		Content:      content,
		Impact:       impact,
		Importance:   importance,
	})
	if err != nil {
		return ConfessionalResult{}, err
	}

	upd := ratings.ApplyConfessional(s.Ratings.Current, impact, audience, aired)
	if err := s.Ratings.Record(s.Day, upd); err != nil {
		return ConfessionalResult{}, err
	}
	return ConfessionalResult{Tone: tone, Impact: impact, Audience: audience, Aired: aired, Event: ev, Rating: upd}, nil
}

// audienceScore rates how watchable a confessional is: length up to a point,
// plus naming other contestants.
func (s *Simulation) audienceScore(content string) float64 {
	words := len(strings.Fields(content))
	score := 35 + float64(min(words, 60))*0.5
	lower := strings.ToLower(content)
	for _, a := range s.Agents {
		if !a.IsPlayer && strings.Contains(lower, strings.ToLower(a.Name)) {
			score += 8
		}
	}
	return min(score, 100)
}

// ResolveEmergent applies the player's choice to the pending emergent event.
func (s *Simulation) ResolveEmergent(choice interrupt.Choice) (interrupt.Outcome, error) {
	out, err := s.Interruptor.Resolve(choice, agents.PlayerID)
	if err != nil {
		return interrupt.Outcome{}, err
	}

	for _, d := range out.Deltas {
		if !s.isActive(d.Agent) {
			continue
		}
		if err := s.adjust(d.Agent, agents.PlayerID, d.Delta, string(memory.EmergentEvent), out.Event.Title, s.Day); err != nil {
			return out, err
		}
	}
	for i, m := range out.Memories {
		m.Day = s.Day
		stored, err := s.record(m)
		if err != nil {
			return out, err
		}
		out.Memories[i] = stored
	}

	upd := ratings.ApplyEmergent(s.Ratings.Current, out.Impact)
	if err := s.Ratings.Record(s.Day, upd); err != nil {
		return out, err
	}

	slog.Info("emergent event resolved", "day", s.Day, "category", out.Event.Category, "choice", out.Choice)
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
