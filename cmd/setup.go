package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/store"
	"github.com/kozaktomas/attendance/internal/store/postgres"
	"github.com/kozaktomas/attendance/internal/store/sqlite"
)

// openStore opens the storage backend selected by the config.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StorageBackend() {
	case "postgres":
		st, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL store: %w", err)
		}
		return st, nil
	case "sqlite":
		st, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend())
	}
}

// loadGallery builds the in-memory matching gallery from enrolled people.
func loadGallery(ctx context.Context, cfg *config.Config, st store.Store) (*gallery.Gallery, error) {
	g := gallery.New(cfg.Database.HNSWIndexPath)
	if err := g.Load(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}
	return g, nil
}

// newProvider creates the configured face engine provider.
func newProvider(cfg *config.Config) (engine.Provider, error) {
	provider, err := engine.NewProvider(&cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create face engine provider: %w", err)
	}
	return provider, nil
}
