// Package credcrypto protects the password field carried inside trust
// tokens. Every federation node derives the same cipher from the shared
// secret, so a token issued here decrypts on the owning node.
package credcrypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher encrypts and decrypts credential strings under a key derived from
// the shared federation secret.
type Cipher struct {
	aead cipher.AEAD
}

// New derives the AEAD key from the shared secret.
func New(sharedSecret string) (*Cipher, error) {
	if sharedSecret == "" {
		return nil, fmt.Errorf("shared secret cannot be empty")
	}
	key := sha256.Sum256([]byte(sharedSecret))
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("init credential cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns a base64url string carrying
// nonce || ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on any tampering or on ciphertext
// produced under a different shared secret.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return string(plaintext), nil
}
