package repomanager

import (
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
)

// InMemoryRepositoryManager vends the in-memory entry store. State is lost
// on shutdown; intended for tests and local development.
type InMemoryRepositoryManager struct {
	entries *entries.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{entries: entries.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) Entries() entries.Repository {
	return m.entries
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
