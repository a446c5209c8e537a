package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService([]byte("test-secret"), time.Minute, time.Minute)
}

func newSignerKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub, priv
}

func TestRedeemChallenge_HappyPath(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	id, nonceHex, err := s.NewChallenge()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	nonce, err := hex.DecodeString(nonceHex)
	require.NoError(t, err)
	require.Len(t, nonce, challengeNonceSize)

	token, err := s.RedeemChallenge(id, pub, ed25519.Sign(priv, nonce))
	require.NoError(t, err)

	owner, err := s.SignerFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(pub), owner.Hex())
}

func TestRedeemChallenge_BadSignature(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	id, _, err := s.NewChallenge()
	require.NoError(t, err)

	// Signature over the wrong payload.
	_, err = s.RedeemChallenge(id, pub, ed25519.Sign(priv, []byte("something else")))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRedeemChallenge_SingleUse(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	id, nonceHex, err := s.NewChallenge()
	require.NoError(t, err)
	nonce, _ := hex.DecodeString(nonceHex)
	sig := ed25519.Sign(priv, nonce)

	_, err = s.RedeemChallenge(id, pub, sig)
	require.NoError(t, err)

	_, err = s.RedeemChallenge(id, pub, sig)
	assert.ErrorIs(t, err, common.ErrChallengeNotFound)
}

func TestRedeemChallenge_ConsumedEvenOnFailure(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	id, nonceHex, err := s.NewChallenge()
	require.NoError(t, err)
	nonce, _ := hex.DecodeString(nonceHex)

	_, err = s.RedeemChallenge(id, pub, ed25519.Sign(priv, []byte("wrong")))
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	// A failed attempt burns the challenge.
	_, err = s.RedeemChallenge(id, pub, ed25519.Sign(priv, nonce))
	assert.ErrorIs(t, err, common.ErrChallengeNotFound)
}

func TestRedeemChallenge_Expired(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	id, nonceHex, err := s.NewChallenge()
	require.NoError(t, err)
	nonce, _ := hex.DecodeString(nonceHex)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = s.RedeemChallenge(id, pub, ed25519.Sign(priv, nonce))
	assert.ErrorIs(t, err, common.ErrChallengeExpired)
}

func TestRedeemChallenge_UnknownID(t *testing.T) {
	s := newTestService(t)
	pub, priv := newSignerKey(t)

	_, err := s.RedeemChallenge("no-such-id", pub, ed25519.Sign(priv, []byte("x")))
	assert.ErrorIs(t, err, common.ErrChallengeNotFound)
}

func TestRedeemChallenge_ShortPublicKey(t *testing.T) {
	s := newTestService(t)

	id, _, err := s.NewChallenge()
	require.NoError(t, err)

	_, err = s.RedeemChallenge(id, []byte{1, 2, 3}, []byte{4, 5, 6})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
