package memory

import (
	"sort"

	"github.com/talgya/castaway/internal/agents"
)

const (
	contextRecent  = 5
	contextThreats = 3
	contextAllies  = 3

	allianceBondBonus = 25.0
)

// Ranked pairs an agent with a score.
type Ranked struct {
	Agent agents.AgentID `json:"agent"`
	Score float64        `json:"score"`
}

// Context is a computed, short-lived view of an agent's strategic position.
type Context struct {
	Agent      agents.AgentID `json:"agent"`
	Strategy   string         `json:"strategy"`
	Plan       VotingPlan     `json:"plan"`
	Recent     []Event        `json:"recent_events"`
	TopThreats []Ranked       `json:"top_threats"`
	Allies     []Ranked       `json:"allies"`
}

// StrategicContext summarizes id's journal. sharedAlliances, when non-nil,
// reports how many live alliances id shares with another agent; each shared
// alliance adds a fixed bonus to that agent's ally score.
func (s *Store) StrategicContext(id agents.AgentID, sharedAlliances func(agents.AgentID) int) (Context, error) {
	j, err := s.journal(id)
	if err != nil {
		return Context{}, err
	}

	ctx := Context{Agent: id, Strategy: j.Strategy, Plan: j.Plan}

	recent := append([]Event(nil), j.Events...)
	sort.SliceStable(recent, func(a, b int) bool {
		if recent[a].Day != recent[b].Day {
			return recent[a].Day > recent[b].Day
		}
		if recent[a].Importance != recent[b].Importance {
			return recent[a].Importance > recent[b].Importance
		}
		return recent[a].Seq > recent[b].Seq
	})
	if len(recent) > contextRecent {
		recent = recent[:contextRecent]
	}
	ctx.Recent = recent

	var threats []Ranked
	for other, v := range j.Threat {
		if v > 0 {
			threats = append(threats, Ranked{Agent: other, Score: v})
		}
	}
	ctx.TopThreats = topRanked(threats, contextThreats)

	var allies []Ranked
	for _, other := range s.order {
		if other == id {
			continue
		}
		score := j.Bond[other]
		if sharedAlliances != nil {
			score += allianceBondBonus * float64(sharedAlliances(other))
		}
		if score > 0 {
			allies = append(allies, Ranked{Agent: other, Score: score})
		}
	}
	ctx.Allies = topRanked(allies, contextAllies)

	return ctx, nil
}

func topRanked(list []Ranked, n int) []Ranked {
	sort.Slice(list, func(a, b int) bool {
		if list[a].Score != list[b].Score {
			return list[a].Score > list[b].Score
		}
		return list[a].Agent < list[b].Agent
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
