package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/keydir"
)

// Register claims a username for the keystore's signing key. The encryption
// key is entered as hex; an empty line generates a fresh random key, which
// is printed so the user can save it.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username to register", a.out)
	if err != nil {
		return err
	}
	if err := keydir.ValidateUsername(username); err != nil {
		return err
	}

	key, generated, err := a.readEncryptionKey()
	if err != nil {
		return err
	}

	priv, err := a.unlockKey()
	if err != nil {
		return err
	}

	if err := a.client.Authenticate(ctx, priv); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	entry, err := a.client.Register(ctx, username, key)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s\n", entry.Username)
	fmt.Fprintf(a.out, "Owner: %s\n", entry.Owner.Hex())
	if generated {
		fmt.Fprintf(a.out, "Generated encryption key: %s\n", hex.EncodeToString(key[:]))
	}
	return nil
}

// readEncryptionKey prompts for a 32-byte hex key. An empty line yields a
// freshly generated random key; the second return value reports that.
func (a *App) readEncryptionKey() ([keydir.KeySize]byte, bool, error) {
	var key [keydir.KeySize]byte

	line, err := GetSimpleText(a.reader,
		fmt.Sprintf("Encryption key (%d hex chars, empty to generate one)", keydir.KeySize*2), a.out)
	if err != nil {
		return key, false, err
	}

	if line == "" {
		copy(key[:], common.GenerateRandByteArray(keydir.KeySize))
		return key, true, nil
	}

	raw, err := hex.DecodeString(line)
	if err != nil {
		return key, false, common.ErrInvalidKey
	}
	key, err = keydir.KeyFromBytes(raw)
	return key, false, err
}
