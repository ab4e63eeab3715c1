// Package cryptox implements the cryptographic primitives protecting the
// local vault: a slow password KDF and authenticated symmetric encryption.
// Functions here are pure transformations and never log their inputs.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes generated per account at
// registration. Must never go below 16.
const SaltSize = 32

const nonceSize = 12

// DeriveKey stretches a password into a 256-bit key using Argon2id.
// The parameters are deliberately expensive so an attacker holding a stolen
// account database cannot brute-force passwords cheaply.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns the value stored in place of a password hash: the
// SHA-256 of the derived key. It is salted transitively because the key is.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// NewSalt returns a fresh random salt for account registration.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Seal encrypts plaintext with AES-256-GCM under key and returns a single
// blob laid out as nonce||ciphertext. A new random nonce is generated per
// call. The key must be 32 bytes (as produced by DeriveKey).
func Seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	blob := make([]byte, 0, nonceSize+len(plaintext)+aesgcm.Overhead())
	blob = append(blob, nonce...)
	return aesgcm.Seal(blob, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal. A wrong key, a truncated blob and
// tampered ciphertext all fail the GCM authentication check and surface as
// common.ErrDecryptionFailed, indistinguishable from each other.
func Open(blob, key []byte) ([]byte, error) {
	if len(blob) < nonceSize {
		return nil, common.ErrDecryptionFailed
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	plaintext, err := aesgcm.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

// SealJSON serializes v to JSON and encrypts it with Seal.
func SealJSON(v any, key []byte) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)
	return Seal(plaintext, key)
}

// OpenJSON decrypts a blob produced by SealJSON and unmarshals the result
// into v.
func OpenJSON(blob, key []byte, v any) error {
	plaintext, err := Open(blob, key)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)
	return json.Unmarshal(plaintext, v)
}
