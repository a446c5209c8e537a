// Package auth implements signer authentication for the registry: callers
// prove possession of an ed25519 key by signing a server challenge and
// receive a short-lived HS256 access token carrying the signer's public key.
package auth

import (
	"time"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims includes the registered claims plus the hex-encoded ed25519 public
// key of the authenticated signer.
type Claims struct {
	jwt.RegisteredClaims
	Signer string
}

// GenerateToken issues an HS256 token binding the signer key for
// validityDuration.
func GenerateToken(signerHex string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Signer: signerHex,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSignerFromToken verifies the token and returns the hex signer key it
// carries.
func GetSignerFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.Signer == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Signer, nil
}
