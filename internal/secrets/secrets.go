// Package secrets seals provider API keys before they reach the database.
// Stored values are AES-256-GCM ciphertext, hex encoded with the nonce
// prepended, so a database dump alone does not leak provider credentials.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var ErrBadKey = errors.New("secrets: key must be 32 bytes hex encoded")

type Box struct {
	aead cipher.AEAD
}

// NewBox builds a sealer from a 64-char hex key. An empty key yields a
// pass-through box for development setups.
func NewBox(keyHex string) (*Box, error) {
	if keyHex == "" {
		return &Box{}, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 32 {
		return nil, ErrBadKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext for storage.
func (b *Box) Seal(plaintext string) (string, error) {
	if b.aead == nil {
		return plaintext, nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(out), nil
}

// Open decrypts a stored value.
func (b *Box) Open(stored string) (string, error) {
	if b.aead == nil {
		return stored, nil
	}
	raw, err := hex.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("secrets: decode: %w", err)
	}
	ns := b.aead.NonceSize()
	if len(raw) < ns {
		return "", errors.New("secrets: ciphertext too short")
	}
	plain, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("secrets: open: %w", err)
	}
	return string(plain), nil
}
