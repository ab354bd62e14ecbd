// Package crypto provides AES-256-GCM helpers for fields stored encrypted at
// rest (bank account numbers) and a SHA-256 digest for opaque tokens.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidKey         = errors.New("encryption key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// FieldCipher seals and opens individual column values.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher from a 64-char hex key.
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &FieldCipher{aead: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *FieldCipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	n := c.aead.NonceSize()
	if len(data) < n {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// EncryptPtr encrypts an optional value; nil and "" pass through as nil.
func (c *FieldCipher) EncryptPtr(v *string) (*string, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	out, err := c.Encrypt(*v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptPtr decrypts an optional value.
func (c *FieldCipher) DecryptPtr(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	out, err := c.Decrypt(*v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Hash returns the SHA-256 hex digest of value. Refresh tokens are stored
// only in this form.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
