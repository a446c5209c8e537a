package entries

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, username string) keydir.Address {
	t.Helper()
	addr, err := keydir.DeriveAddress(username)
	require.NoError(t, err)
	return addr
}

func testEntry(username string, ownerByte, keyByte byte) *keydir.Entry {
	e := &keydir.Entry{Username: username}
	for i := range e.Owner {
		e.Owner[i] = ownerByte
	}
	for i := range e.EncryptionKey {
		e.EncryptionKey[i] = keyByte
	}
	return e
}

// testRepositorySemantics exercises the Repository contract shared by every
// backend: create-once, read-after-write, atomic mutate, absent-address
// behavior.
func testRepositorySemantics(t *testing.T, r Repository) {
	ctx := context.Background()

	alice := mustAddr(t, "alice")
	nobody := mustAddr(t, "nobody")

	// Absent address.
	exists, err := r.Exists(ctx, alice)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = r.Get(ctx, nobody)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = r.Mutate(ctx, nobody, func(e *keydir.Entry) error { return nil })
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// Create once.
	entry := testEntry("alice", 1, 2)
	require.NoError(t, r.Create(ctx, alice, entry))

	exists, err = r.Exists(ctx, alice)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := r.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	// Second create for the same address loses.
	err = r.Create(ctx, alice, testEntry("alice", 3, 4))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	got, err = r.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, entry, got, "loser must not clobber the stored entry")

	// Failed transformation leaves the entry untouched.
	boom := assert.AnError
	err = r.Mutate(ctx, alice, func(e *keydir.Entry) error {
		e.EncryptionKey[0] = 0xFF
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err = r.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	// Successful transformation persists.
	err = r.Mutate(ctx, alice, func(e *keydir.Entry) error {
		e.EncryptionKey = [keydir.KeySize]byte{9, 9, 9}
		return nil
	})
	require.NoError(t, err)

	got, err = r.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, [keydir.KeySize]byte{9, 9, 9}, got.EncryptionKey)
	assert.Equal(t, entry.Owner, got.Owner)
	assert.Equal(t, "alice", got.Username)

	// List sees every entry.
	bob := mustAddr(t, "bob")
	require.NoError(t, r.Create(ctx, bob, testEntry("bob", 5, 6)))

	all, err := r.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, e := range all {
		names = append(names, e.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}
