package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
	"github.com/dmitrijs2005/keydir/internal/logging"
	"github.com/dmitrijs2005/keydir/internal/server/auth"
	"github.com/dmitrijs2005/keydir/internal/server/httpapi"
	"github.com/dmitrijs2005/keydir/internal/server/registry"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rs := registry.NewService(entries.NewMemoryRepository())
	as := auth.NewService([]byte("test-secret"), time.Minute, time.Minute)

	srv := httpapi.NewServer(":0", logger, rs, as, nil, nil)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func testKey(b byte) [keydir.KeySize]byte {
	var k [keydir.KeySize]byte
	for i := range k {
		k[i] = b
	}
	return k
}

func TestClient_FullFlow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	c := NewClient(ts.URL, 5*time.Second)
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Authenticate(ctx, priv))

	created, err := c.Register(ctx, "alice", testKey(1))
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, hex.EncodeToString(pub), created.Owner.Hex())

	got, err := c.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, testKey(1), got.EncryptionKey)

	updated, err := c.UpdateKey(ctx, "alice", testKey(2))
	require.NoError(t, err)
	assert.Equal(t, testKey(2), updated.EncryptionKey)
	assert.Equal(t, created.Owner, updated.Owner)
}

func TestClient_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, strangerPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	owner := NewClient(ts.URL, 5*time.Second)
	require.NoError(t, owner.Authenticate(ctx, priv))
	_, err = owner.Register(ctx, "bob", testKey(1))
	require.NoError(t, err)

	// Duplicate registration.
	_, err = owner.Register(ctx, "bob", testKey(2))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	// Unknown username.
	_, err = owner.Lookup(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	// Invalid username and key.
	_, err = owner.Register(ctx, "Bad Name!", testKey(1))
	assert.ErrorIs(t, err, common.ErrInvalidUsername)

	// Update by a non-owner.
	stranger := NewClient(ts.URL, 5*time.Second)
	require.NoError(t, stranger.Authenticate(ctx, strangerPriv))
	_, err = stranger.UpdateKey(ctx, "bob", testKey(3))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// Mutation without a token.
	anon := NewClient(ts.URL, 5*time.Second)
	_, err = anon.Register(ctx, "carol", testKey(1))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClient_ServerUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, time.Second)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, common.ErrorInternal)
}
