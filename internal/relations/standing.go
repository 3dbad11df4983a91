package relations

import (
	"sort"

	"github.com/talgya/castaway/internal/agents"
)

// Standing weights: how much each inbound field contributes to social power.
const (
	standingTrustWeight     = 0.5
	standingClosenessWeight = 0.3
	standingSuspicionWeight = 0.4
)

// Standing is an agent's aggregate social power.
type Standing struct {
	Agent agents.AgentID `json:"agent"`
	Score float64        `json:"score"`
}

// SocialStanding averages every inbound edge whose source passes include
// (nil includes everyone) into one social power score. An agent nobody has an
// edge toward scores 0.
func (g *Graph) SocialStanding(id agents.AgentID, include func(agents.AgentID) bool) float64 {
	total := 0.0
	n := 0
	for _, e := range g.Inbound(id) {
		if include != nil && !include(e.From) {
			continue
		}
		total += standingTrustWeight*e.Trust + standingClosenessWeight*e.Closeness - standingSuspicionWeight*e.Suspicion
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// RankByStanding scores ids and orders them from most to least powerful.
// Ties keep the order of ids.
func (g *Graph) RankByStanding(ids []agents.AgentID, include func(agents.AgentID) bool) []Standing {
	out := make([]Standing, len(ids))
	for i, id := range ids {
		out[i] = Standing{Agent: id, Score: g.SocialStanding(id, include)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
