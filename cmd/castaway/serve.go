package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/castaway/internal/api"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/llm"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the game server",
		Long: `Serve the game over HTTP. The saved slot is resumed when present,
otherwise a new season starts. With --autoplay the day advances on a
wall-clock timer; without it, POST /api/v1/advance moves the day.

Examples:
  castaway serve
  castaway serve --autoplay --port 9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.API.Port = port
			}
			autoplay, _ := cmd.Flags().GetBool("autoplay")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer st.Close()

			sim, resumed, err := loadOrCreate(ctx, cfg, st, cfg.Storage.Slot)
			if err != nil {
				return err
			}
			slog.Info("game ready", "resumed", resumed, "day", sim.Day, "cast", len(sim.Agents), "slot", cfg.Storage.Slot)

			gen, err := llm.New(ctx, cfg.LLM.Options())
			if err != nil {
				return fmt.Errorf("failed to create generator: %w", err)
			}
			slog.Info("dialogue", "llm", cfg.LLM.String(), "enabled", gen != nil)

			srv := &api.Server{
				Sim:               sim,
				Gen:               gen,
				Store:             st,
				Slot:              cfg.Storage.Slot,
				Port:              cfg.API.Port,
				AdminKey:          cfg.API.AdminKey,
				RelayKey:          cfg.API.RelayKey,
				Origins:           cfg.API.Origins,
				InteractPerMinute: cfg.API.InteractPerMinute,
			}
			if autoplay {
				srv.Clock = engine.NewClock(cfg.Game.DayInterval, srv.Advance)
				go srv.Clock.Run(ctx)
			}
			if cfg.API.AdminKey == "" {
				slog.Warn("no admin key configured; snapshot, restore and speed endpoints are disabled")
			}
			srv.Start()

			<-ctx.Done()
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("http shutdown", "error", err)
			}
			if srv.Clock != nil {
				srv.Clock.Stop()
			}

			if err := srv.SaveNow(shutdownCtx); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 0, "Override the configured HTTP port")
	cmd.Flags().Bool("autoplay", false, "Advance days on a timer")
	return cmd
}
