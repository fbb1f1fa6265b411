package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrSessionInvalid = errors.New("session cookie is invalid")

// SessionSealer encrypts admin tokens into opaque cookie values.
type SessionSealer struct {
	key [chacha20poly1305.KeySize]byte
}

// NewSessionSealer derives a 32-byte key from the configured secret.
func NewSessionSealer(secret string) (*SessionSealer, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	return &SessionSealer{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal encrypts the plaintext with XChaCha20-Poly1305. The nonce is prepended
// to the ciphertext and the whole value is base64url encoded.
func (s *SessionSealer) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *SessionSealer) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", ErrSessionInvalid
	}
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrSessionInvalid
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSessionInvalid
	}
	return string(plaintext), nil
}
