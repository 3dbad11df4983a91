package autopilot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/interrupt"
	"github.com/talgya/castaway/internal/llm"
)

// Actions.
const (
	ActionNone    = "none"
	ActionChoose  = "choose"
	ActionMend    = "mend"
	ActionAdvance = "advance"
)

// Favored agents at or above this trust in the player are worth siding with.
const engageTrust = 10

const maxMessageLen = 280

const systemPrompt = `You are coaching a contestant on a reality elimination show. Each cycle you see the game state and a proposed move. You may keep it or swap the target or wording, but never invent contestants.

Respond with ONLY valid JSON:
{"action": "mend", "target": "<id>", "message": "<what to say>", "rationale": "<one sentence>"}

"action" must be one of: "none", "choose", "mend", "advance". For "choose" set "choice" to "deescalate" or "engage".`

// Decision is one move for the player.
type Decision struct {
	Action    string           `json:"action"`
	Choice    interrupt.Choice `json:"choice,omitempty"`
	Target    agents.AgentID   `json:"target,omitempty"`
	Message   string           `json:"message,omitempty"`
	Rationale string           `json:"rationale"`
}

// Heuristic picks a move from the snapshot alone. A pending emergent event is
// always resolved first since the day cannot advance until it is.
func Heuristic(snap *GameSnapshot, health *GameHealth, mem *CycleMemory) *Decision {
	if snap.Status.GameOver {
		return &Decision{Action: ActionNone, Rationale: "game over"}
	}

	if snap.Pending != nil {
		ev := snap.Pending
		if !ev.Category.Conflict() {
			return &Decision{
				Action:    ActionChoose,
				Choice:    interrupt.Engage,
				Rationale: fmt.Sprintf("%s is low risk, leaning in", ev.Category),
			}
		}
		fav := ev.Favored()
		if a := find(snap.Agents, fav); a != nil && a.Trust >= engageTrust {
			return &Decision{
				Action:    ActionChoose,
				Choice:    interrupt.Engage,
				Rationale: fmt.Sprintf("siding with %s, trust %.0f", a.Name, a.Trust),
			}
		}
		return &Decision{
			Action:    ActionChoose,
			Choice:    interrupt.Deescalate,
			Rationale: fmt.Sprintf("no trusted ally in %q, calming it down", ev.Title),
		}
	}

	if health.Danger != DangerSafe && health.MostSuspicious != "" &&
		!mem.MendedOn(snap.Status.Day, health.MostSuspicious) {
		a := find(snap.Agents, health.MostSuspicious)
		return &Decision{
			Action:    ActionMend,
			Target:    health.MostSuspicious,
			Message:   mendMessage(a),
			Rationale: fmt.Sprintf("%s: rank %d of %d with %d days to the vote", health.Danger, health.Rank, health.Active, health.DaysToVote),
		}
	}

	return &Decision{Action: ActionAdvance, Rationale: "nothing urgent"}
}

func mendMessage(a *engine.AgentSummary) string {
	if a == nil {
		return "I think we got off on the wrong foot. Can we talk?"
	}
	if a.Suspicion >= 60 {
		return fmt.Sprintf("%s, I know what people are saying about me. Hear it from me instead.", a.Name)
	}
	return fmt.Sprintf("%s, I want us to be good. I'm not coming for you.", a.Name)
}

// Decide returns the heuristic move, optionally refined by gen. A nil
// generator or an unusable answer keeps the heuristic.
func Decide(ctx context.Context, gen llm.Generator, snap *GameSnapshot, mem *CycleMemory) *Decision {
	health := Triage(snap)
	base := Heuristic(snap, health, mem)
	if gen == nil || base.Action == ActionNone {
		return base
	}

	prompt := formatSnapshot(snap, health, base, mem)
	slog.Debug("autopilot prompt", "length", len(prompt))

	resp, err := gen.Generate(ctx, llm.Request{System: systemPrompt, Prompt: prompt, MaxTokens: 256})
	if err != nil {
		slog.Warn("autopilot llm failed, using heuristic", "error", err)
		return base
	}

	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var d Decision
	if err := json.Unmarshal([]byte(resp), &d); err != nil {
		slog.Warn("autopilot decision unparseable, using heuristic", "raw", resp, "error", err)
		return base
	}
	if err := enforceGuardrails(&d, snap); err != nil {
		slog.Warn("autopilot guardrail violation, using heuristic", "error", err)
		return base
	}
	return &d
}

// enforceGuardrails validates the decision against the snapshot and clamps
// free text.
func enforceGuardrails(d *Decision, snap *GameSnapshot) error {
	if snap.Pending != nil && d.Action != ActionChoose {
		return fmt.Errorf("action %q while an emergent event is pending", d.Action)
	}

	switch d.Action {
	case ActionNone, ActionAdvance:
		d.Target, d.Message, d.Choice = "", "", ""

	case ActionChoose:
		if snap.Pending == nil {
			return fmt.Errorf("choose without a pending event")
		}
		c, err := interrupt.ParseChoice(string(d.Choice))
		if err != nil {
			return err
		}
		d.Choice = c
		d.Target, d.Message = "", ""

	case ActionMend:
		a := find(snap.Agents, d.Target)
		if a == nil || a.IsPlayer || a.Eliminated {
			return fmt.Errorf("mend target %q is not an active contestant", d.Target)
		}
		d.Message = strings.TrimSpace(d.Message)
		if d.Message == "" {
			d.Message = mendMessage(a)
		}
		if r := []rune(d.Message); len(r) > maxMessageLen {
			d.Message = string(r[:maxMessageLen])
		}
		d.Choice = ""

	default:
		return fmt.Errorf("unknown action %q", d.Action)
	}
	return nil
}

// formatSnapshot builds a concise prompt from the game state.
func formatSnapshot(snap *GameSnapshot, h *GameHealth, proposed *Decision, mem *CycleMemory) string {
	var b strings.Builder

	s := snap.Status
	fmt.Fprintf(&b, "## Game (day %d, week %d)\n", s.Day, s.Week)
	fmt.Fprintf(&b, "Active: %d | Next vote: day %d | Rating: %.2f (trend %+.2f)\n", s.Active, s.NextElimination, s.Rating, s.RatingTrend)
	fmt.Fprintf(&b, "Player rank: %d | Danger: %s\n\n", h.Rank, h.Danger)

	b.WriteString("## Contestants\n")
	for _, a := range snap.Agents {
		if a.IsPlayer || a.Eliminated {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): trust=%.0f suspicion=%.0f closeness=%.0f standing=%.1f\n",
			a.ID, a.Name, a.Trust, a.Suspicion, a.Closeness, a.Standing)
	}

	if ev := snap.Pending; ev != nil {
		fmt.Fprintf(&b, "\n## Pending event (%s)\n%s: %s\n", ev.Category, ev.Title, ev.Description)
	}

	if hist := mem.FormatForPrompt(); hist != "" {
		b.WriteString("\n")
		b.WriteString(hist)
	}

	proposal, _ := json.Marshal(proposed)
	fmt.Fprintf(&b, "\n## Proposed move\n%s\n", proposal)
	return b.String()
}

func find(list []engine.AgentSummary, id agents.AgentID) *engine.AgentSummary {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
