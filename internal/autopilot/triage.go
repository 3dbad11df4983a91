package autopilot

import (
	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/engine"
)

// Danger levels, most severe first.
const (
	DangerCritical = "CRITICAL"
	DangerWarning  = "WARNING"
	DangerSafe     = "SAFE"
)

// GameHealth holds signals derived from a GameSnapshot. It is computed
// before any decision and is deterministic.
type GameHealth struct {
	Rank           int // player's standing rank among active contestants, 1 = best
	Active         int
	DaysToVote     int
	Immune         bool
	MostSuspicious agents.AgentID // active NPC most suspicious of the player
	WarmestAlly    agents.AgentID // active NPC with the highest trust in the player
	Danger         string
}

// Triage computes a GameHealth from the snapshot.
func Triage(snap *GameSnapshot) *GameHealth {
	h := &GameHealth{
		Active:     snap.Status.Active,
		DaysToVote: snap.Status.NextElimination - snap.Status.Day,
		Immune:     snap.Status.Immune == agents.PlayerID,
		Danger:     DangerSafe,
	}

	var player *engine.AgentSummary
	var maxSusp, maxTrust float64 = -1, -101
	for i := range snap.Agents {
		a := &snap.Agents[i]
		if a.Eliminated {
			continue
		}
		if a.IsPlayer {
			player = a
			continue
		}
		if a.Suspicion > maxSusp {
			maxSusp, h.MostSuspicious = a.Suspicion, a.ID
		}
		if a.Trust > maxTrust {
			maxTrust, h.WarmestAlly = a.Trust, a.ID
		}
	}
	if player == nil {
		return h
	}

	h.Rank = 1
	for _, a := range snap.Agents {
		if !a.Eliminated && !a.IsPlayer && a.Standing > player.Standing {
			h.Rank++
		}
	}

	bottom := h.Rank >= h.Active-1
	switch {
	case h.Immune:
	case bottom && h.DaysToVote <= 1:
		h.Danger = DangerCritical
	case bottom || maxSusp >= 60:
		h.Danger = DangerWarning
	}
	return h
}
