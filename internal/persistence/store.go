// Package persistence saves and loads game snapshots. SQLite is the default
// backend; MongoDB is available for hosted deployments.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/talgya/castaway/internal/engine"
)

// ErrNotFound means the slot holds no saved game.
var ErrNotFound = errors.New("no saved game in slot")

// Store persists snapshots in named slots.
type Store interface {
	Save(ctx context.Context, slot string, snap *engine.Snapshot) error
	Load(ctx context.Context, slot string) (*engine.Snapshot, error)
	Close() error
}

// Open returns the store for driver: "sqlite" uses path, "mongo" uses uri
// and database.
func Open(ctx context.Context, driver, path, uri, database string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(path)
	case "mongo":
		return OpenMongo(ctx, uri, database)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}
