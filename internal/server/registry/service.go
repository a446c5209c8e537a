// Package registry implements the registry operations (register, lookup,
// update-key) on top of the entry store. All authorization and validation
// rules live here; atomicity is delegated to the store.
package registry

import (
	"context"
	"crypto/subtle"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
)

type Service struct {
	repo entries.Repository
}

func NewService(repo entries.Repository) *Service {
	return &Service{repo: repo}
}

// Register claims username for signer with the given 32-byte encryption key.
// The claim is permanent: there is no release or transfer path. Returns
// ErrInvalidUsername / ErrInvalidKey before any storage access, and
// ErrorAlreadyExists when the username's address is already occupied.
func (s *Service) Register(ctx context.Context, signer keydir.Owner, username string, encryptionKey []byte) (*keydir.Entry, error) {

	key, err := keydir.KeyFromBytes(encryptionKey)
	if err != nil {
		return nil, err
	}

	addr, err := keydir.DeriveAddress(username)
	if err != nil {
		return nil, err
	}

	entry := &keydir.Entry{
		Username:      username,
		Owner:         signer,
		EncryptionKey: key,
	}

	if err := s.repo.Create(ctx, addr, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Lookup returns the entry registered for username, or ErrorNotFound. It is
// a pure read; no authorization is required.
func (s *Service) Lookup(ctx context.Context, username string) (*keydir.Entry, error) {

	addr, err := keydir.DeriveAddress(username)
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, addr)
}

// UpdateKey replaces the encryption key of signer's entry for username.
// The owner check runs inside the store's atomic mutate, so a failed check
// leaves the stored entry untouched and no stale-snapshot overwrite is
// possible. Returns ErrorNotFound when no entry exists and
// ErrorUnauthorized when signer is not the recorded owner.
func (s *Service) UpdateKey(ctx context.Context, signer keydir.Owner, username string, newKey []byte) error {

	key, err := keydir.KeyFromBytes(newKey)
	if err != nil {
		return err
	}

	addr, err := keydir.DeriveAddress(username)
	if err != nil {
		return err
	}

	return s.repo.Mutate(ctx, addr, func(entry *keydir.Entry) error {
		if subtle.ConstantTimeCompare(entry.Owner[:], signer[:]) != 1 {
			return common.ErrorUnauthorized
		}
		entry.EncryptionKey = key
		return nil
	})
}
