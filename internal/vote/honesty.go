package vote

import (
	"fmt"

	"github.com/talgya/castaway/internal/agents"
)

// Honesty is a heuristic label on a claim. It is a narrative read for debug
// tooling, not ground truth.
type Honesty string

const (
	Truth Honesty = "truth"
	Lie   Honesty = "lie"
	Maybe Honesty = "maybe"
)

// Classification thresholds on the voter's profile.
const (
	HighTrust     = 40.0
	LowSuspicion  = 30.0
	HighSuspicion = 60.0
)

// Assessment pairs a claim with the inferred target and an honesty label.
type Assessment struct {
	Claim     Claim          `json:"claim"`
	Inferred  agents.AgentID `json:"inferred,omitempty"`
	Label     Honesty        `json:"label"`
	Rationale string         `json:"rationale"`
}

// AskForEliminationVote returns voter's claim and classifies it against the
// inferred actual target.
func AskForEliminationVote(voter agents.AgentID, s State, plans Plans) (Assessment, error) {
	v := s.agent(voter)
	if v == nil || !v.Active() {
		return Assessment{}, fmt.Errorf("ask %q: %w", voter, ErrUnknownVoter)
	}
	claim := ClaimFor(voter, s, plans)
	inferred, ok := Infer(voter, s)
	label, why := Classify(v, claim, inferred, ok)
	return Assessment{Claim: claim, Inferred: inferred, Label: label, Rationale: why}, nil
}

// Classify labels a claim. Order matters: undecided first, then a trusting
// match, then a suspicious or deceptive mismatch, then the no-inference
// trusting default, then maybe.
func Classify(v *agents.Agent, claim Claim, inferred agents.AgentID, hasInference bool) (Honesty, string) {
	p := v.Profile
	trusting := p.Trust >= HighTrust && p.Suspicion <= LowSuspicion

	switch {
	case claim.Undecided():
		return Maybe, "No target was named, so there is nothing to check."
	case hasInference && claim.Target == inferred && trusting:
		return Truth, "The claim matches their read of the house and they trust you."
	case hasInference && claim.Target != inferred && (p.Suspicion >= HighSuspicion || v.HasTrait(agents.TraitDeceptive)):
		return Lie, fmt.Sprintf("The claim points away from %s and they are wary or scheming.", inferred)
	case !hasInference && trusting:
		return Truth, "No clear read on their vote, but they trust you."
	default:
		return Maybe, "Signals are mixed."
	}
}
