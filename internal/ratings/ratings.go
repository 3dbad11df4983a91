// Package ratings turns simulation deltas into a bounded, mean-reverting
// audience rating. Each Apply function is pure; State.Record appends the
// result to the history.
package ratings

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/castaway/internal/balance"
	"github.com/talgya/castaway/internal/memory"
)

// ErrOutOfOrder means a rating entry was dated before the last one.
var ErrOutOfOrder = errors.New("rating entry precedes history")

// Per-source delta caps.
const (
	reactionCap     = 0.4
	confessionalCap = 0.5
	emergentCap     = 0.6
	buzzCap         = 0.2

	meanReversion = 0.01
)

// Update is a proposed new rating and why.
type Update struct {
	Value  float64 `json:"value"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// orZero maps NaN, which survives every clamp, to no change.
func orZero(delta float64) float64 {
	if math.IsNaN(delta) {
		return 0
	}
	return delta
}

func apply(current, delta, limit float64, reason string) Update {
	delta = balance.Symmetric(orZero(delta), limit)
	next := balance.ClampRating(current + delta)
	return Update{Value: next, Delta: next - current, Reason: reason}
}

// Reaction summarizes how a scene played.
type Reaction struct {
	Entertainment float64 `json:"entertainment"`
	Influence     float64 `json:"influence"`
	Trust         float64 `json:"trust"`
	Suspicion     float64 `json:"suspicion"`
}

// ApplyReaction weighs a reaction summary. Trust losses and suspicion gains
// count for more than their opposites.
func ApplyReaction(current float64, r Reaction) Update {
	trustW := 0.015
	if r.Trust > 0 {
		trustW = 0.008
	}
	suspW := 0.005
	if r.Suspicion > 0 {
		suspW = 0.015
	}
	d := 0.02*r.Entertainment + 0.01*r.Influence + trustW*r.Trust - suspW*r.Suspicion
	return apply(current, d, reactionCap, fmt.Sprintf("reaction (entertainment %.0f)", r.Entertainment))
}

// ApplyConfessional scores a confessional by impact and audience score
// centered on 50, with a bonus if it aired.
func ApplyConfessional(current, impact, audience float64, aired bool) Update {
	d := 0.03*impact + 0.004*(audience-50)
	reason := "confessional"
	if aired {
		d += 0.05
		reason = "aired confessional"
	}
	return apply(current, d, confessionalCap, reason)
}

// ApplyEmergent scales an emergent event's outcome impact.
func ApplyEmergent(current, impact float64) Update {
	return apply(current, 0.15*impact, emergentCap, "emergent event")
}

// Buzz counts the last day's activity.
type Buzz struct {
	Drama          int `json:"drama"`
	Strategy       int `json:"strategy"`
	Eliminations   int `json:"eliminations"`
	ActiveAlliance int `json:"active_alliances"`
}

// CountBuzz tallies drama, strategy, and elimination events.
func CountBuzz(events []memory.Event, activeAlliances int) Buzz {
	b := Buzz{ActiveAlliance: activeAlliances}
	for _, e := range events {
		switch e.Type {
		case memory.Betrayal, memory.Scheme, memory.EmergentEvent, memory.GossipSpread:
			b.Drama++
		case memory.AllianceForm, memory.AllianceMeet, memory.Vote, memory.PromiseMade:
			b.Strategy++
		case memory.EliminationOut:
			b.Eliminations++
		}
	}
	return b
}

// ApplyDailyBuzz adds the day's capped buzz, then pulls the result 1% of the
// way back toward the baseline.
func ApplyDailyBuzz(current float64, b Buzz) Update {
	d := 0.03*float64(b.Drama) + 0.02*float64(b.Strategy) + 0.1*float64(b.Eliminations) + 0.01*float64(b.ActiveAlliance)
	d = balance.Symmetric(orZero(d), buzzCap)
	next := current + d
	next += (balance.RatingBaseline - next) * meanReversion
	next = balance.ClampRating(next)
	return Update{Value: next, Delta: next - current, Reason: fmt.Sprintf("daily buzz (%d drama, %d strategy)", b.Drama, b.Strategy)}
}
