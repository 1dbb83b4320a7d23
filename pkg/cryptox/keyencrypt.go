package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyInfo binds derived keys to this purpose so the same master secret can
// safely serve other derivations later.
const keyInfo = "osa signing key encryption v1"

// KeyCipher seals private key material at rest using AES-256-GCM with a key
// derived from a master secret via HKDF-SHA256.
type KeyCipher struct {
	aead cipher.AEAD
}

// NewKeyCipher derives an AES-256 key from secret and returns a ready cipher.
// The secret can be any length; an empty secret is rejected.
func NewKeyCipher(secret []byte) (*KeyCipher, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("cryptox: empty master secret")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("cryptox: derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}

	return &KeyCipher{aead: aead}, nil
}

// NewEphemeralKeyCipher builds a cipher from a random secret. Sealed data does
// not survive the process; development mode only.
func NewEphemeralKeyCipher() (*KeyCipher, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("cryptox: generate ephemeral secret: %w", err)
	}
	return NewKeyCipher(secret)
}

// Seal encrypts plaintext. Output layout: [nonce][ciphertext][auth tag].
func (c *KeyCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	// Seal appends ciphertext and tag to the nonce prefix.
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal, verifying the authentication tag.
func (c *KeyCipher) Open(sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return nil, fmt.Errorf("cryptox: sealed data too short")
	}

	plaintext, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decrypt: %w", err)
	}
	return plaintext, nil
}
