// Package agents provides the contestant data model: identity, elimination
// state, and the psychological profile every other system reads.
package agents

import "slices"

// AgentID is a unique, stable identifier for a contestant.
type AgentID string

// PlayerID is the identifier always given to the player character.
const PlayerID AgentID = "player"

// Trait is a disposition tag that colors how an agent plays the game.
type Trait string

const (
	TraitCompetitive Trait = "competitive"
	TraitDeceptive   Trait = "deceptive"
	TraitLoyal       Trait = "loyal"
	TraitParanoid    Trait = "paranoid"
	TraitCharming    Trait = "charming"
	TraitVolatile    Trait = "volatile"
	TraitStrategic   Trait = "strategic"
	TraitSocial      Trait = "social"
)

// Agent is a contestant. Agents are never removed from the cast, only flagged
// eliminated.
type Agent struct {
	ID        AgentID `json:"id"`
	Name      string  `json:"name"`
	IsPlayer  bool    `json:"is_player"`
	Archetype string  `json:"archetype,omitempty"`

	// Profile is this agent's aggregate stance toward the player. It mirrors
	// the agent->player relationship edge and is written only through the
	// engine's shared social update path.
	Profile Profile `json:"profile"`

	Eliminated    bool `json:"eliminated"`
	EliminatedDay int  `json:"eliminated_day,omitempty"`
}

// Profile is the psychological state of an agent.
type Profile struct {
	Trust     float64 `json:"trust"`     // -100 to 100
	Suspicion float64 `json:"suspicion"` // 0 to 100
	Closeness float64 `json:"closeness"` // -100 to 100

	Disposition []Trait `json:"disposition"`

	// EditBias is how the show tends to portray this agent: -1 villain, +1 hero.
	EditBias float64 `json:"edit_bias"`
}

// Active reports whether the agent is still in the game.
func (a *Agent) Active() bool {
	return !a.Eliminated
}

// HasTrait reports whether the agent's disposition includes t.
func (a *Agent) HasTrait(t Trait) bool {
	return slices.Contains(a.Profile.Disposition, t)
}

// Eliminate flags the agent out of the game as of day.
func (a *Agent) Eliminate(day int) {
	a.Eliminated = true
	a.EliminatedDay = day
}

// ActiveAgents returns the agents still in the game, preserving order.
func ActiveAgents(list []*Agent) []*Agent {
	var res []*Agent
	for _, a := range list {
		if a.Active() {
			res = append(res, a)
		}
	}
	return res
}

// Index builds an ID lookup for list.
func Index(list []*Agent) map[AgentID]*Agent {
	idx := make(map[AgentID]*Agent, len(list))
	for _, a := range list {
		idx[a.ID] = a
	}
	return idx
}

// IDs returns the identifiers of list in order.
func IDs(list []*Agent) []AgentID {
	ids := make([]AgentID, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}
