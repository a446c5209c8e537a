// Package keystore persists the client's ed25519 signing key on disk,
// sealed with a passphrase. The seed is stretched-key encrypted (argon2id
// plus AES-GCM); only the 32-byte seed is stored, the key pair is re-derived
// on load.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/keydir/internal/common"
	"github.com/dmitrijs2005/keydir/internal/cryptox"
	"github.com/dmitrijs2005/keydir/internal/filex"
)

// fileFormat is the on-disk JSON layout. All byte fields are hex-encoded.
type fileFormat struct {
	Version int    `json:"version"`
	Salt    string `json:"salt"`
	Nonce   string `json:"nonce"`
	Data    string `json:"data"`
}

const formatVersion = 1

// Generate creates a fresh ed25519 key pair.
func Generate() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// Save seals the private key's seed under passphrase and writes it to path
// with 0600 permissions, creating parent directories as needed.
func Save(path string, priv ed25519.PrivateKey, passphrase []byte) error {
	if _, err := filex.EnsureParentDir(path); err != nil {
		return fmt.Errorf("keystore dir: %w", err)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	ciphertext, nonce, err := cryptox.Encrypt(priv.Seed(), key)
	if err != nil {
		return fmt.Errorf("seal seed: %w", err)
	}

	data, err := json.Marshal(fileFormat{
		Version: formatVersion,
		Salt:    hex.EncodeToString(salt),
		Nonce:   hex.EncodeToString(nonce),
		Data:    hex.EncodeToString(ciphertext),
	})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Load reads the keystore at path, unseals the seed with passphrase and
// returns the re-derived key pair. A wrong passphrase surfaces as a
// decryption error.
func Load(path string, passphrase []byte) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("keystore parse: %w", err)
	}
	if f.Version != formatVersion {
		return nil, nil, fmt.Errorf("unsupported keystore version %d", f.Version)
	}

	salt, err := hex.DecodeString(f.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("keystore parse: %w", err)
	}
	nonce, err := hex.DecodeString(f.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("keystore parse: %w", err)
	}
	ciphertext, err := hex.DecodeString(f.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("keystore parse: %w", err)
	}

	key := cryptox.DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	seed, err := cryptox.Decrypt(ciphertext, nonce, key)
	if err != nil {
		return nil, nil, fmt.Errorf("unseal seed: %w", err)
	}
	defer common.WipeByteArray(seed)

	if len(seed) != ed25519.SeedSize {
		return nil, nil, fmt.Errorf("keystore seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv, nil
}
