// Package entries provides the persistent entry store keyed by derived
// address, with PostgreSQL, Badger and in-memory implementations.
package entries

import (
	"context"

	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// Repository is the registry entry store. Each entry lives at the address
// derived from its username, so address occupancy is the username uniqueness
// mechanism.
//
// Create and Mutate are each atomic with respect to any concurrent operation
// on the same address: of several concurrent Create calls for one address
// exactly one succeeds and the rest observe ErrorAlreadyExists, and Mutate
// applies its transformation to the current stored entry, never to a stale
// snapshot. Operations on distinct addresses are independent.
type Repository interface {
	// Exists reports whether an entry occupies addr.
	Exists(ctx context.Context, addr keydir.Address) (bool, error)

	// Get returns the entry at addr, or common.ErrorNotFound.
	Get(ctx context.Context, addr keydir.Address) (*keydir.Entry, error)

	// Create materializes entry at addr, or fails with
	// common.ErrorAlreadyExists if addr is occupied.
	Create(ctx context.Context, addr keydir.Address, entry *keydir.Entry) error

	// Mutate atomically applies f to the entry stored at addr and persists
	// the result. It fails with common.ErrorNotFound if addr is unoccupied.
	// If f returns an error the stored entry is left unchanged and the
	// error is returned as-is.
	Mutate(ctx context.Context, addr keydir.Address, f func(*keydir.Entry) error) error

	// List returns a snapshot of all stored entries, in no particular order.
	List(ctx context.Context) ([]*keydir.Entry, error)
}
