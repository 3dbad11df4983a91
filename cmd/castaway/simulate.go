package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/castaway/internal/agents"
	"github.com/talgya/castaway/internal/autopilot"
	"github.com/talgya/castaway/internal/engine"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a season headless",
		Long: `Run the game without a server. The player's side is played by the
autopilot heuristic: emergent events are resolved, suspicious contestants are
approached before a vote, and the day advances.

Examples:
  castaway simulate --days 28
  castaway simulate --seed 9 --cast 10 --save trial`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			days, _ := cmd.Flags().GetInt("days")
			slot, _ := cmd.Flags().GetString("save")
			if cmd.Flags().Changed("seed") {
				cfg.Game.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("cast") {
				cfg.Game.CastSize, _ = cmd.Flags().GetInt("cast")
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			ctx := cmd.Context()
			sim, _, err := loadOrCreate(ctx, cfg, nil, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := playDays(out, sim, days); err != nil {
				return err
			}
			printSummary(out, sim)

			if slot != "" {
				st, err := openStore(ctx, cfg.Storage)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := save(ctx, st, slot, sim); err != nil {
					return fmt.Errorf("save: %w", err)
				}
				fmt.Fprintf(out, "Saved to slot %q.\n", slot)
			}
			return nil
		},
	}
	cmd.Flags().Int("days", 28, "Days to play")
	cmd.Flags().Int64("seed", 0, "Override the configured seed")
	cmd.Flags().Int("cast", 0, "Override the configured cast size")
	cmd.Flags().String("save", "", "Save the result to this slot")
	return cmd
}

// playDays lets the autopilot heuristic play until days have closed or the
// game ends.
func playDays(out io.Writer, sim *engine.Simulation, days int) error {
	mem := autopilot.LoadMemory("")
	closed := 0
	// Each day allows at most one approach per contestant plus an event.
	budget := days * (len(sim.Agents) + 2)

	for step := 0; closed < days && !sim.GameOver; step++ {
		if step >= budget {
			return fmt.Errorf("no progress after %d moves", step)
		}
		snap := &autopilot.GameSnapshot{
			Status: sim.Status(),
			Agents: sim.AgentSummaries(),
		}
		if ev, ok := sim.Interruptor.Pending(); ok {
			snap.Pending = &ev
		}
		health := autopilot.Triage(snap)
		d := autopilot.Heuristic(snap, health, mem)
		mem.Record(autopilot.CycleRecord{Day: sim.Day, Action: d.Action, Target: d.Target, Danger: health.Danger})

		switch d.Action {
		case autopilot.ActionNone:
			return nil
		case autopilot.ActionChoose:
			o, err := sim.ResolveEmergent(d.Choice)
			if err != nil {
				return fmt.Errorf("day %d: %w", sim.Day, err)
			}
			fmt.Fprintf(out, "Day %d: %s (%s)\n", sim.Day, o.Event.Title, o.Choice)
		case autopilot.ActionMend:
			if _, err := sim.Interact(engine.PlayerAction{
				Target:   d.Target,
				Content:  d.Message,
				Tone:     engine.ToneFriendly,
				Category: engine.CategoryConversation,
			}); err != nil {
				return fmt.Errorf("day %d: %w", sim.Day, err)
			}
		case autopilot.ActionAdvance:
			rep, err := sim.AdvanceDay()
			if err != nil {
				return fmt.Errorf("day %d: %w", sim.Day, err)
			}
			closed++
			if e := rep.Elimination; e != nil && e.Eliminated != "" {
				fmt.Fprintf(out, "Day %d: %s voted out with %d votes\n", e.Day, nameOf(sim, e.Eliminated), e.Tally[e.Eliminated])
			}
			slog.Debug("day closed", "day", rep.Closed, "rating", rep.Rating)
		}
	}
	return nil
}

func printSummary(out io.Writer, sim *engine.Simulation) {
	st := sim.Status()
	fmt.Fprintf(out, "\nDay %d, %s week. %d still in the house.\n", st.Day, humanize.Ordinal(st.Week), st.Active)
	fmt.Fprintf(out, "Rating %.2f, %s events logged, %d alliances.\n", st.Rating, humanize.Comma(int64(st.Events)), st.Alliances)
	if st.GameOver {
		fmt.Fprintf(out, "Winner: %s\n", nameOf(sim, st.Winner))
	}
}

func nameOf(sim *engine.Simulation, id agents.AgentID) string {
	if a, err := sim.Agent(id); err == nil {
		return a.Name
	}
	return string(id)
}
