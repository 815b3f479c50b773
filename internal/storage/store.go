// Package storage persists the single world document.
package storage

import (
	"context"
	"errors"
	"fmt"

	"fleets-server/internal/shared/config"
	"fleets-server/internal/world"
)

// ErrWorldNotFound is returned by Load before the world has been seeded.
var ErrWorldNotFound = errors.New("world document not found")

// Store holds exactly one world document.
type Store interface {
	// Load returns the stored world.
	Load(ctx context.Context) (*world.World, error)
	// Replace atomically discards the stored world and stores w.
	Replace(ctx context.Context, w *world.World) error
	// Seed stores an empty world if none exists and reports whether it did.
	Seed(ctx context.Context) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLite.Path)
	case config.BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
