package cli

import (
	"context"
	"encoding/hex"
	"fmt"
)

// UpdateKey replaces the encryption key of a username owned by the
// keystore's signing key.
func (a *App) UpdateKey(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username to update", a.out)
	if err != nil {
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

	entry, err := a.client.UpdateKey(ctx, username, key)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Updated key for %s\n", entry.Username)
	if generated {
		fmt.Fprintf(a.out, "Generated encryption key: %s\n", hex.EncodeToString(key[:]))
	}
	return nil
}
