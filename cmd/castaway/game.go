package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talgya/castaway/internal/config"
	"github.com/talgya/castaway/internal/engine"
	"github.com/talgya/castaway/internal/entropy"
	"github.com/talgya/castaway/internal/persistence"
)

func openStore(ctx context.Context, cfg config.StorageConfig) (persistence.Store, error) {
	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	st, err := persistence.Open(ctx, cfg.Driver, cfg.Path, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	slog.Info("store opened", "storage", cfg.String())
	return st, nil
}

// streamsFor derives seeded streams. With a random.org key the flavor stream
// draws true randomness; decisions stay seeded.
func streamsFor(seed int64, randomOrgKey string) entropy.Streams {
	s := entropy.NewStreams(seed)
	if r := entropy.NewRemote(randomOrgKey); r != nil {
		s.Flavor = r
	}
	return s
}

// loadOrCreate restores slot from st, or starts a new season when the slot
// is empty. st may be nil.
func loadOrCreate(ctx context.Context, cfg *config.Config, st persistence.Store, slot string) (*engine.Simulation, bool, error) {
	if st != nil {
		snap, err := st.Load(ctx, slot)
		switch {
		case err == nil:
			sim, err := engine.Restore(*snap, streamsFor(snap.Config.Seed+int64(snap.Day), cfg.Entropy.RandomOrgKey))
			if err != nil {
				return nil, false, fmt.Errorf("restore slot %q: %w", slot, err)
			}
			return sim, true, nil
		case !errors.Is(err, persistence.ErrNotFound):
			return nil, false, fmt.Errorf("load slot %q: %w", slot, err)
		}
	}

	ec := cfg.Game.Engine()
	sim, err := engine.NewSimulation(ec, streamsFor(ec.Seed, cfg.Entropy.RandomOrgKey))
	if err != nil {
		return nil, false, fmt.Errorf("new season: %w", err)
	}
	return sim, false, nil
}

func save(ctx context.Context, st persistence.Store, slot string, sim *engine.Simulation) error {
	snap := sim.Snapshot()
	return st.Save(ctx, slot, &snap)
}
