// Command autopilot plays the player's side of a running castaway server.
//
// Each cycle it observes the game, picks one move, and acts. Run it
// alongside "castaway serve" to keep a season moving unattended.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/castaway/internal/autopilot"
	"github.com/talgya/castaway/internal/config"
	"github.com/talgya/castaway/internal/llm"
	"github.com/talgya/castaway/internal/logging"
)

func main() {
	cmd := &cobra.Command{
		Use:          "autopilot",
		Short:        "Play the player's side of a running castaway server",
		SilenceUsage: true,
		RunE:         run,
	}
	cmd.Flags().StringP("config", "c", "", "Path to a YAML config file")
	cmd.Flags().Bool("once", false, "Run a single cycle and exit")
	cmd.Flags().String("memory", "autopilot_memory.json", "Cycle memory file; empty keeps memory in-process")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	once, _ := cmd.Flags().GetBool("once")
	memoryPath, _ := cmd.Flags().GetString("memory")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, os.Stdout))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen, err := llm.New(ctx, cfg.LLM.Options())
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	pc := cfg.Autopilot
	pilot := &autopilot.Pilot{
		Observer: autopilot.NewObserver(pc.ServerURL),
		Actor:    autopilot.NewActor(pc.ServerURL, cfg.API.AdminKey),
		Gen:      gen,
		Memory:   autopilot.LoadMemory(memoryPath),
		DryRun:   pc.DryRun,
	}

	slog.Info("autopilot starting",
		"server", pc.ServerURL,
		"interval", pc.Interval,
		"dry_run", pc.DryRun,
		"llm", gen != nil,
	)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	err = pilot.Observer.WaitReady(waitCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("game server unreachable: %w", err)
	}

	if once {
		_, err := pilot.Cycle(ctx)
		return err
	}

	ticker := time.NewTicker(pc.Interval)
	defer ticker.Stop()

	for {
		d, err := pilot.Cycle(ctx)
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			slog.Warn("cycle failed", "error", err)
		case d != nil && d.Action == autopilot.ActionNone:
			slog.Info("game over, autopilot stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			slog.Info("autopilot shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
