package cli

import (
	"context"
	"encoding/hex"
	"fmt"
)

// Lookup fetches and prints the entry registered under a username. No
// authentication is required.
func (a *App) Lookup(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username to look up", a.out)
	if err != nil {
		return err
	}

	entry, err := a.client.Lookup(ctx, username)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Username:       %s\n", entry.Username)
	fmt.Fprintf(a.out, "Owner:          %s\n", entry.Owner.Hex())
	fmt.Fprintf(a.out, "Encryption key: %s\n", hex.EncodeToString(entry.EncryptionKey[:]))
	return nil
}

// Ping checks server reachability.
func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	fmt.Fprintln(a.out, "Server is reachable")
	return nil
}
