package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/castaway/internal/engine"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [slot]",
		Short: "Show a saved game",
		Long: `Print the status, standings, and recent rating history of a saved
slot. The configured slot is used when none is given. --list shows every
slot in a SQLite store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			if list, _ := cmd.Flags().GetBool("list"); list {
				lister, ok := st.(interface {
					Slots(context.Context) ([]string, error)
				})
				if !ok {
					return fmt.Errorf("storage driver %q cannot list slots", cfg.Storage.Driver)
				}
				slots, err := lister.Slots(ctx)
				if err != nil {
					return err
				}
				for _, s := range slots {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			slot := cfg.Storage.Slot
			if len(args) == 1 {
				slot = args[0]
			}
			snap, err := st.Load(ctx, slot)
			if err != nil {
				return fmt.Errorf("load slot %q: %w", slot, err)
			}
			sim, err := engine.Restore(*snap, streamsFor(snap.Config.Seed+int64(snap.Day), ""))
			if err != nil {
				return err
			}
			printInspect(out, slot, sim)
			return nil
		},
	}
	cmd.Flags().Bool("list", false, "List saved slots")
	return cmd
}

func printInspect(out io.Writer, slot string, sim *engine.Simulation) {
	st := sim.Status()
	fmt.Fprintf(out, "Slot %s: day %d (%s week), next vote day %d\n", slot, st.Day, humanize.Ordinal(st.Week), st.NextElimination)
	fmt.Fprintf(out, "Rating %.2f (trend %+.2f), %s events\n\n", st.Rating, st.RatingTrend, humanize.Comma(int64(st.Events)))

	standings := sim.AgentSummaries()
	slices.SortStableFunc(standings, func(a, b engine.AgentSummary) int {
		if a.Eliminated != b.Eliminated {
			if a.Eliminated {
				return 1
			}
			return -1
		}
		return cmp.Compare(b.Standing, a.Standing)
	})
	for i, a := range standings {
		status := humanize.Ordinal(i + 1)
		if a.Eliminated {
			status = fmt.Sprintf("out day %d", a.EliminatedDay)
		}
		fmt.Fprintf(out, "%-10s %-12s standing %6.1f  trust %6.1f  suspicion %5.1f\n", status, a.Name, a.Standing, a.Trust, a.Suspicion)
	}

	if hist := sim.Ratings.Recent(5); len(hist) > 0 {
		fmt.Fprintln(out, "\nRecent ratings:")
		for _, e := range hist {
			fmt.Fprintf(out, "  day %-3d %.2f  %s\n", e.Day, e.Rating, e.Reason)
		}
	}
}
