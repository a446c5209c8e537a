package repomanager

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/keydir/internal/filex"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
)

// BadgerRepositoryManager owns an embedded Badger database.
type BadgerRepositoryManager struct {
	db *badger.DB
}

// NewBadgerRepositoryManager ensures the data directory exists and opens the
// database there. An empty dir opens a throwaway in-memory database.
func NewBadgerRepositoryManager(dir string) (*BadgerRepositoryManager, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		path, err := filex.EnsureDir(dir)
		if err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open error: %w", err)
	}

	return &BadgerRepositoryManager{db: db}, nil
}

func (m *BadgerRepositoryManager) Entries() entries.Repository {
	return entries.NewBadgerRepository(m.db)
}

func (m *BadgerRepositoryManager) Close() error {
	return m.db.Close()
}
