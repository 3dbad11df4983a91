package vote

import (
	"fmt"

	"github.com/talgya/castaway/internal/agents"
)

// Claim sources.
const (
	SourceWeeklyPlan = "weekly_plan"
	SourceFallback   = "fallback"
)

const guardedTrust = -20.0

// Claim is what an agent says it will do. An empty Target is undecided.
type Claim struct {
	Agent     agents.AgentID `json:"agent"`
	Target    agents.AgentID `json:"target,omitempty"`
	Reasoning string         `json:"reasoning"`
	Source    string         `json:"source"`
	Day       int            `json:"day"`
}

// Undecided reports whether the claim names no target.
func (c Claim) Undecided() bool {
	return c.Target == ""
}

// Plans maps each agent to the claim it settled on for the week.
type Plans map[agents.AgentID]Claim

// FallbackClaim builds voter's shareable claim from current state. It is
// deterministic: guarded agents stay undecided, deceptive agents point at
// their second choice, everyone else names their real target.
func FallbackClaim(voter agents.AgentID, s State) Claim {
	c := Claim{Agent: voter, Source: SourceFallback, Day: s.Day}
	v := s.agent(voter)
	ranked := RankCandidates(voter, s)

	switch {
	case v == nil || len(ranked) == 0:
		c.Reasoning = "I honestly haven't made up my mind yet."
	case v.Profile.Trust < guardedTrust:
		c.Reasoning = "I'm keeping that one close to the chest."
	case v.HasTrait(agents.TraitDeceptive) && len(ranked) > 1:
		c.Target = ranked[1].Agent
		c.Reasoning = fmt.Sprintf("Between us, %s has been playing way too hard.", s.name(c.Target))
	default:
		c.Target = ranked[0].Agent
		c.Reasoning = fmt.Sprintf("Honestly? %s is the biggest threat in this house right now.", s.name(c.Target))
	}
	return c
}

// PlanWeek settles every active non-player agent's claim for the week.
func PlanWeek(s State) Plans {
	plans := make(Plans)
	for _, a := range s.Agents {
		if a.IsPlayer || !a.Active() {
			continue
		}
		c := FallbackClaim(a.ID, s)
		c.Source = SourceWeeklyPlan
		plans[a.ID] = c
	}
	return plans
}

// ClaimFor returns voter's claim from plans, or a fallback claim if the plan
// is missing or names someone who has since left the game.
func ClaimFor(voter agents.AgentID, s State, plans Plans) Claim {
	if c, ok := plans[voter]; ok {
		if c.Undecided() {
			return c
		}
		if t := s.agent(c.Target); t != nil && t.Active() {
			return c
		}
	}
	return FallbackClaim(voter, s)
}
