package autopilot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/castaway/internal/llm"
)

// Pilot runs observe, decide, act cycles against one server.
type Pilot struct {
	Observer *Observer
	Actor    *Actor
	Gen      llm.Generator // optional
	Memory   *CycleMemory
	DryRun   bool
}

// Cycle runs one observation and at most one action. The decision is
// returned even when acting fails.
func (p *Pilot) Cycle(ctx context.Context) (*Decision, error) {
	snap, err := p.Observer.Observe(ctx)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}

	health := Triage(snap)
	slog.Info("autopilot observed",
		"day", snap.Status.Day,
		"active", snap.Status.Active,
		"rank", health.Rank,
		"danger", health.Danger,
		"pending", snap.Pending != nil,
	)

	d := Decide(ctx, p.Gen, snap, p.Memory)
	slog.Info("autopilot decision", "action", d.Action, "choice", d.Choice, "target", d.Target, "rationale", d.Rationale)

	p.Memory.Record(CycleRecord{
		Day:       snap.Status.Day,
		Action:    d.Action,
		Choice:    string(d.Choice),
		Target:    d.Target,
		Danger:    health.Danger,
		Rating:    snap.Status.Rating,
		Rationale: d.Rationale,
	})
	if err := p.Memory.Save(); err != nil {
		slog.Warn("autopilot memory not saved", "error", err)
	}

	if p.DryRun || d.Action == ActionNone {
		return d, nil
	}
	if _, err := p.Actor.Act(ctx, d); err != nil {
		return d, fmt.Errorf("act %s: %w", d.Action, err)
	}
	return d, nil
}
