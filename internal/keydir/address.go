// Package keydir contains the core registry domain: usernames, entries,
// deterministic addressing and the fixed-size record codec. It has no
// storage or transport dependencies so every rule is unit-testable in
// isolation.
package keydir

import (
	"encoding/hex"

	"github.com/dmitrijs2005/keydir/internal/common"
	"golang.org/x/crypto/blake2b"
)

// addressNamespace is the fixed domain tag mixed into every derived address.
// Changing it changes every address, so it is versioned.
const addressNamespace = "keydir:username:v1"

// MaxUsernameLength is the upper bound on username length in bytes.
const MaxUsernameLength = 32

// KeySize is the exact size of an encryption key in bytes.
const KeySize = 32

// OwnerSize is the exact size of an owner identity (ed25519 public key).
const OwnerSize = 32

// Address is the deterministic storage location derived from a username.
type Address [blake2b.Size256]byte

// Hex returns the lowercase hex encoding of the address.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// ValidateUsername checks the length and charset constraints: 1 to
// MaxUsernameLength bytes, lowercase ASCII letters, digits, '.', '_' or '-',
// and the first byte must be a letter or digit. Returns ErrInvalidUsername
// on any violation.
func ValidateUsername(username string) error {
	if len(username) == 0 || len(username) > MaxUsernameLength {
		return common.ErrInvalidUsername
	}
	for i := 0; i < len(username); i++ {
		c := username[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
			if i == 0 {
				return common.ErrInvalidUsername
			}
		default:
			return common.ErrInvalidUsername
		}
	}
	return nil
}

// DeriveAddress validates the username and returns its storage address:
// BLAKE2b-256 over the namespace tag followed by the username. The mapping
// is pure, so occupancy of a username can be tested by anyone by recomputing
// the address. Invalid usernames are rejected before any derivation.
func DeriveAddress(username string) (Address, error) {
	if err := ValidateUsername(username); err != nil {
		return Address{}, err
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte(addressNamespace))
	h.Write([]byte(username))
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr, nil
}
