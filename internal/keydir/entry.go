package keydir

import (
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/keydir/internal/common"
)

// Owner is the identity recorded at registration time: a 32-byte ed25519
// public key. It never changes after creation.
type Owner [OwnerSize]byte

// Hex returns the lowercase hex encoding of the owner key.
func (o Owner) Hex() string {
	return hex.EncodeToString(o[:])
}

// OwnerFromHex parses a 64-character hex string into an Owner.
func OwnerFromHex(s string) (Owner, error) {
	var o Owner
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != OwnerSize {
		return o, fmt.Errorf("owner: expected %d hex-encoded bytes", OwnerSize)
	}
	copy(o[:], b)
	return o, nil
}

// Entry is the persistent record binding a username to an owner identity and
// an encryption key. Username and Owner are immutable after creation;
// EncryptionKey changes only through an authorized update by Owner. The key
// material is opaque to the registry.
type Entry struct {
	Username      string
	Owner         Owner
	EncryptionKey [KeySize]byte
}

// recordVersion tags the serialized layout so it can evolve.
const recordVersion = 1

// RecordSize is the fixed size of a serialized Entry:
// version(1) + username length(1) + username(32, zero padded) +
// owner(32) + encryption key(32).
const RecordSize = 2 + MaxUsernameLength + OwnerSize + KeySize

// MarshalRecord serializes the entry into the fixed-size record layout.
// The username must already be valid.
func (e *Entry) MarshalRecord() ([]byte, error) {
	if err := ValidateUsername(e.Username); err != nil {
		return nil, err
	}
	buf := make([]byte, RecordSize)
	buf[0] = recordVersion
	buf[1] = byte(len(e.Username))
	copy(buf[2:2+MaxUsernameLength], e.Username)
	copy(buf[2+MaxUsernameLength:], e.Owner[:])
	copy(buf[2+MaxUsernameLength+OwnerSize:], e.EncryptionKey[:])
	return buf, nil
}

// UnmarshalRecord parses a fixed-size record produced by MarshalRecord.
// Corrupt input (wrong length, unknown version, bad username length or
// nonzero padding) is rejected.
func UnmarshalRecord(data []byte) (*Entry, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("record: expected %d bytes, got %d", RecordSize, len(data))
	}
	if data[0] != recordVersion {
		return nil, fmt.Errorf("record: unknown version %d", data[0])
	}
	n := int(data[1])
	if n == 0 || n > MaxUsernameLength {
		return nil, fmt.Errorf("record: invalid username length %d", n)
	}
	name := data[2 : 2+MaxUsernameLength]
	for _, b := range name[n:] {
		if b != 0 {
			return nil, fmt.Errorf("record: nonzero username padding")
		}
	}
	e := &Entry{Username: string(name[:n])}
	copy(e.Owner[:], data[2+MaxUsernameLength:])
	copy(e.EncryptionKey[:], data[2+MaxUsernameLength+OwnerSize:])
	if err := ValidateUsername(e.Username); err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	return e, nil
}

// KeyFromBytes copies b into a fixed-size encryption key, rejecting any
// length other than KeySize.
func KeyFromBytes(b []byte) ([KeySize]byte, error) {
	var k [KeySize]byte
	if len(b) != KeySize {
		return k, common.ErrInvalidKey
	}
	copy(k[:], b)
	return k, nil
}
