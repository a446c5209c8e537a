// Package repomanager selects and wires a storage backend for the registry,
// vending the entry repository and running schema migrations where the
// backend needs them.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/keydir/internal/server/config"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
)

// RepositoryManager owns a storage backend and vends repositories bound
// to it. Close releases the backend's resources.
type RepositoryManager interface {
	Entries() entries.Repository
	Close() error
}

// New constructs the RepositoryManager named by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return NewInMemoryRepositoryManager(), nil
	case config.BackendBadger:
		return NewBadgerRepositoryManager(cfg.BadgerDir)
	case config.BackendPostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
