// Command castaway runs the elimination-game simulation: an HTTP server for
// live play, a headless simulator, and save inspection.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/castaway/internal/config"
	"github.com/talgya/castaway/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "castaway",
		Short: "Reality elimination-game simulation",
		Long: `castaway simulates a house of contestants who form alliances, remember
slights, gossip, and vote each other out while the player tries to last.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newSimulateCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "castaway version %s\n", version)
		},
	}
}

// setup loads configuration and installs the default logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		if !logging.ValidLevel(lvl) {
			return nil, fmt.Errorf("invalid log level %q", lvl)
		}
		cfg.Logging.Level = lvl
	}
	slog.SetDefault(logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()))
	return cfg, nil
}
