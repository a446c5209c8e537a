package entries

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Semantics(t *testing.T) {
	testRepositorySemantics(t, NewMemoryRepository())
}

func TestMemoryRepository_ConcurrentCreate_OneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	addr := mustAddr(t, "bob")

	const racers = 32

	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Create(ctx, addr, testEntry("bob", byte(i), byte(i)))
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, common.ErrorAlreadyExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent create must succeed")

	// The stored entry is one racer's submission, never a mixture.
	got, err := r.Get(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, got.Owner[0], got.EncryptionKey[0])
}

func TestMemoryRepository_ConcurrentMutate_Serialized(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	addr := mustAddr(t, "bob")
	require.NoError(t, r.Create(ctx, addr, testEntry("bob", 1, 0)))

	// Each mutation increments the first key byte based on the value it
	// observes. Lost updates would make the final count fall short.
	const updates = 100

	var wg sync.WaitGroup
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Mutate(ctx, addr, func(e *keydir.Entry) error {
				e.EncryptionKey[0]++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Get(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, byte(updates), got.EncryptionKey[0])
}

func TestMemoryRepository_MutateDoesNotBlockOtherAddresses(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	alice := mustAddr(t, "alice")
	bob := mustAddr(t, "bob")
	require.NoError(t, r.Create(ctx, alice, testEntry("alice", 1, 1)))
	require.NoError(t, r.Create(ctx, bob, testEntry("bob", 2, 2)))

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = r.Mutate(ctx, alice, func(e *keydir.Entry) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	// With alice's slot held, bob must still be reachable.
	err := r.Mutate(ctx, bob, func(e *keydir.Entry) error {
		e.EncryptionKey[0] = 7
		return nil
	})
	close(release)
	require.NoError(t, err)
}
