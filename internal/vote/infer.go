// Package vote works out who each contestant actually intends to eliminate,
// what they say when asked, and a heuristic read on whether they are lying.
// The two outputs are kept apart: Infer is the private intent, Claim is what
// is shared.
package vote

import (
	"errors"
	"sort"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/memory"
	"github.com/talgya/castaway/internal/relations"
	"github.com/talgya/castaway/internal/social"
)

// ErrUnknownVoter means the voter is not an active contestant.
var ErrUnknownVoter = errors.New("voter is not an active contestant")

// Scoring weights.
const (
	suspicionWeight   = 0.5
	allyProtection    = 0.7
	lowTrustThreshold = -50.0
	lowTrustOverride  = 5.0
	grievanceWeight   = 4.0
	perAllianceThreat = 12.0
	competitiveBonus  = 8.0
)

// EdgeReader reads relationship edges.
type EdgeReader interface {
	Get(from, to agents.AgentID) relations.Edge
}

// JournalReader reads private journals.
type JournalReader interface {
	Journal(id agents.AgentID) (memory.Journal, error)
}

// State is the read-only view vote inference works from.
type State struct {
	Day       int
	Agents    []*agents.Agent
	Edges     EdgeReader
	Journals  JournalReader
	Alliances []social.Alliance
	Immune    agents.AgentID
}

func (s State) agent(id agents.AgentID) *agents.Agent {
	for _, a := range s.Agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (s State) name(id agents.AgentID) string {
	if a := s.agent(id); a != nil {
		return a.Name
	}
	return string(id)
}

// Candidate is one possible vote target and its score.
type Candidate struct {
	Agent agents.AgentID `json:"agent"`
	Score float64        `json:"score"`
}

// RankCandidates scores every eligible target for voter, highest first. Ties
// keep cast order. Eligible means active, not immune, and not the voter.
func RankCandidates(voter agents.AgentID, s State) []Candidate {
	v := s.agent(voter)
	if v == nil {
		return nil
	}

	var grievances map[agents.AgentID]float64
	if s.Journals != nil {
		if j, err := s.Journals.Journal(voter); err == nil {
			grievances = conversationImpact(voter, j.Events)
		}
	}

	var out []Candidate
	for _, c := range s.Agents {
		if c.ID == voter || !c.Active() || c.ID == s.Immune {
			continue
		}

		score := 0.0
		if s.Edges != nil {
			score += suspicionWeight * s.Edges.Get(voter, c.ID).Suspicion
		}
		for _, al := range social.Shared(s.Alliances, voter, c.ID) {
			if v.Profile.Trust <= lowTrustThreshold {
				score += lowTrustOverride
			} else {
				score -= allyProtection * al.Strength
			}
		}
		score += grievanceWeight * -grievances[c.ID]
		score += perAllianceThreat * float64(len(social.Containing(s.Alliances, c.ID)))
		if c.HasTrait(agents.TraitCompetitive) {
			score += competitiveBonus
		}

		out = append(out, Candidate{Agent: c.ID, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Infer returns voter's actual intended target, or false if nobody is
// eligible.
func Infer(voter agents.AgentID, s State) (agents.AgentID, bool) {
	ranked := RankCandidates(voter, s)
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Agent, true
}

// conversationImpact sums the emotional impact of conversations and direct
// messages in voter's journal, keyed by the other participants.
func conversationImpact(voter agents.AgentID, events []memory.Event) map[agents.AgentID]float64 {
	out := make(map[agents.AgentID]float64)
	for _, e := range events {
		if e.Type != memory.Conversation && e.Type != memory.DirectMessage {
			continue
		}
		if !e.Involves(voter) {
			continue
		}
		for _, p := range e.Participants {
			if p != voter {
				out[p] += e.Impact
			}
		}
	}
	return out
}
