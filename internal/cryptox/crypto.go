// Package cryptox wraps the key-derivation and symmetric-encryption
// primitives used by the client keystore: argon2id to stretch a passphrase
// into an AES key, and AES-GCM to seal the stored seed.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. Moderate cost: the keystore is opened interactively.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	derivedLen   = 32
)

// SaltSize is the number of random bytes used as KDF salt.
const SaltSize = 16

// DeriveKey stretches a passphrase and salt into a 32-byte AES key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, derivedLen)
}

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random
// 12-byte nonce is generated per call and returned alongside the
// ciphertext.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens an AES-256-GCM ciphertext produced by Encrypt. A wrong key,
// nonce or tampered ciphertext yields an error, never garbage plaintext.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}

	return gcm.Open(nil, nonce, ciphertext, nil)
}
