package entries

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// txnRetries bounds retries of Badger transactions that fail with
// ErrConflict. After a conflicting create commits, the retry observes the
// occupied key and reports ErrorAlreadyExists instead.
const txnRetries = 3

// BadgerRepository implements entry storage over an embedded Badger database.
// Entries are stored as fixed-size records at key = address, so the database
// is a direct materialization of the derived-address scheme.
type BadgerRepository struct {
	db *badger.DB
}

// NewBadgerRepository constructs a repository over an open Badger database.
func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (r *BadgerRepository) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < txnRetries; i++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (r *BadgerRepository) Exists(ctx context.Context, addr keydir.Address) (bool, error) {
	var exists bool
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(addr[:])
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	return exists, err
}

func (r *BadgerRepository) Get(ctx context.Context, addr keydir.Address) (*keydir.Entry, error) {
	var entry *keydir.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(addr[:])
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return common.ErrorNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = keydir.UnmarshalRecord(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Create checks occupancy and writes the record inside one transaction.
// Badger detects the conflict when two creates for the same address commit
// concurrently; the loser re-runs, finds the key occupied and reports
// ErrorAlreadyExists.
func (r *BadgerRepository) Create(ctx context.Context, addr keydir.Address, entry *keydir.Entry) error {
	data, err := entry.MarshalRecord()
	if err != nil {
		return err
	}
	return r.update(func(txn *badger.Txn) error {
		_, err := txn.Get(addr[:])
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(addr[:], data)
	})
}

// Mutate reads, transforms and rewrites the record in one transaction, so a
// concurrent update never overwrites based on a stale snapshot. An error
// from f aborts the transaction with the stored record untouched.
func (r *BadgerRepository) Mutate(ctx context.Context, addr keydir.Address, f func(*keydir.Entry) error) error {
	return r.update(func(txn *badger.Txn) error {
		item, err := txn.Get(addr[:])
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return common.ErrorNotFound
			}
			return err
		}

		var entry *keydir.Entry
		if err := item.Value(func(val []byte) error {
			entry, err = keydir.UnmarshalRecord(val)
			return err
		}); err != nil {
			return err
		}

		if err := f(entry); err != nil {
			return err
		}

		data, err := entry.MarshalRecord()
		if err != nil {
			return err
		}
		return txn.Set(addr[:], data)
	})
}

func (r *BadgerRepository) List(ctx context.Context) ([]*keydir.Entry, error) {
	var result []*keydir.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				entry, err := keydir.UnmarshalRecord(val)
				if err != nil {
					return fmt.Errorf("key %x: %w", it.Item().Key(), err)
				}
				result = append(result, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
