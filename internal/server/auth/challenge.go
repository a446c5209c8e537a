package auth

import (
	"crypto/ed25519"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
	"github.com/google/uuid"
)

// challengeNonceSize is the number of random bytes in a challenge nonce.
const challengeNonceSize = 32

type challenge struct {
	nonce     []byte
	expiresAt time.Time
}

// Service issues single-use challenges and exchanges valid ed25519 proofs
// for access tokens. Challenges are held in memory only; a restarted server
// simply requires a fresh challenge.
type Service struct {
	secretKey         []byte
	tokenValidity     time.Duration
	challengeValidity time.Duration

	mu         sync.Mutex
	challenges map[string]challenge

	now func() time.Time // seam for expiry tests
}

// NewService constructs the auth service.
func NewService(secretKey []byte, tokenValidity, challengeValidity time.Duration) *Service {
	return &Service{
		secretKey:         secretKey,
		tokenValidity:     tokenValidity,
		challengeValidity: challengeValidity,
		challenges:        make(map[string]challenge),
		now:               time.Now,
	}
}

// ChallengeValidity returns the window in which a challenge can be redeemed.
func (s *Service) ChallengeValidity() time.Duration {
	return s.challengeValidity
}

// NewChallenge returns a challenge id and a hex nonce the caller must sign.
func (s *Service) NewChallenge() (string, string, error) {
	nonceHex, err := common.MakeRandHexString(challengeNonceSize)
	if err != nil {
		return "", "", common.ErrorInternal
	}
	nonce, _ := hex.DecodeString(nonceHex)

	id := uuid.NewString()

	s.mu.Lock()
	s.evictExpiredLocked()
	s.challenges[id] = challenge{nonce: nonce, expiresAt: s.now().Add(s.challengeValidity)}
	s.mu.Unlock()

	return id, nonceHex, nil
}

func (s *Service) evictExpiredLocked() {
	now := s.now()
	for id, c := range s.challenges {
		if now.After(c.expiresAt) {
			delete(s.challenges, id)
		}
	}
}

// take removes and returns the challenge, so each one is redeemable once.
func (s *Service) take(id string) (challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return challenge{}, common.ErrChallengeNotFound
	}
	delete(s.challenges, id)

	if s.now().After(c.expiresAt) {
		return challenge{}, common.ErrChallengeExpired
	}
	return c, nil
}

// RedeemChallenge verifies that signature is a valid ed25519 signature of
// the challenge nonce by publicKey and issues an access token for that
// signer. The challenge is consumed whether or not verification succeeds.
func (s *Service) RedeemChallenge(id string, publicKey, signature []byte) (string, error) {
	c, err := s.take(id)
	if err != nil {
		return "", err
	}

	if len(publicKey) != ed25519.PublicKeySize {
		return "", common.ErrorUnauthorized
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), c.nonce, signature) {
		return "", common.ErrorUnauthorized
	}

	return GenerateToken(hex.EncodeToString(publicKey), s.secretKey, s.tokenValidity)
}

// SignerFromToken verifies an access token and returns the signer identity
// it carries.
func (s *Service) SignerFromToken(tokenString string) (keydir.Owner, error) {
	signerHex, err := GetSignerFromToken(tokenString, s.secretKey)
	if err != nil {
		return keydir.Owner{}, common.ErrInvalidToken
	}

	owner, err := keydir.OwnerFromHex(signerHex)
	if err != nil {
		return keydir.Owner{}, common.ErrInvalidToken
	}
	return owner, nil
}
