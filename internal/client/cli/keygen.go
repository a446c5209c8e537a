package cli

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keydir/internal/client/keystore"
	"github.com/dmitrijs2005/keydir/internal/common"
)

// Keygen generates a fresh signing key pair and stores it encrypted at the
// configured keystore path. An existing keystore is never overwritten.
func (a *App) Keygen(ctx context.Context) error {
	if _, err := os.Stat(a.config.KeystorePath); err == nil {
		return fmt.Errorf("keystore %s already exists, remove it first to generate a new key", a.config.KeystorePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	pass, err := GetPassphrase(a.out, "Choose a keystore passphrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	confirm, err := GetPassphrase(a.out, "Repeat passphrase: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(pass) != string(confirm) {
		return errors.New("passphrases do not match")
	}

	pub, priv, err := keystore.Generate()
	if err != nil {
		return err
	}

	if err := keystore.Save(a.config.KeystorePath, priv, pass); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Keystore written to %s\n", a.config.KeystorePath)
	fmt.Fprintf(a.out, "Signer public key: %s\n", hex.EncodeToString(pub))
	return nil
}

// unlockKey prompts for the keystore passphrase and loads the signing key.
func (a *App) unlockKey() (ed25519.PrivateKey, error) {
	pass, err := GetPassphrase(a.out, "Keystore passphrase: ")
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pass)

	_, priv, err := keystore.Load(a.config.KeystorePath, pass)
	if err != nil {
		return nil, fmt.Errorf("open keystore %s: %w", a.config.KeystorePath, err)
	}
	return priv, nil
}
