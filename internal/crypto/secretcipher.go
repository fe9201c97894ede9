// Package crypto provides AES-256-GCM encryption for tenant integration
// secrets (payment provider keys, messaging tokens) stored at rest.
//
// Stored values have the form hex(iv):hex(tag):hex(ciphertext) with a 16-byte
// IV and a 16-byte GCM tag. The web frontend reads and writes the same
// format, so the layout and the key derivation (SHA-256 of the passphrase)
// must not change.
//
// Without a passphrase outside production-like environments the cipher is a
// passthrough and values are stored as given.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

const (
	ivSize  = 16
	tagSize = 16
)

var (
	// ErrMissingKey is returned when a production-like deployment has no passphrase configured.
	ErrMissingKey = errors.New("crypto: encryption key is required in production")
	// ErrInvalidFormat is returned when a value is not iv:tag:ciphertext hex.
	ErrInvalidFormat = errors.New("crypto: invalid encrypted value format")
	// ErrDecryptFailed is returned when GCM authentication fails, meaning tampering or a wrong key.
	ErrDecryptFailed = errors.New("crypto: decryption failed")
)

// SecretCipher encrypts and decrypts short secret strings.
type SecretCipher struct {
	key []byte
}

// NewSecretCipher builds a cipher from an operator passphrase. An empty
// passphrase yields a passthrough cipher, unless productionLike is set, in
// which case ErrMissingKey is returned.
func NewSecretCipher(passphrase string, productionLike bool) (*SecretCipher, error) {
	if passphrase == "" {
		if productionLike {
			return nil, ErrMissingKey
		}
		return &SecretCipher{}, nil
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &SecretCipher{key: sum[:]}, nil
}

// Enabled reports whether values are actually encrypted.
func (c *SecretCipher) Enabled() bool {
	return len(c.key) != 0
}

func (c *SecretCipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// Encrypt seals plaintext under a fresh random IV.
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() {
		return plaintext, nil
	}

	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext.
	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *SecretCipher) Decrypt(value string) (string, error) {
	if !c.Enabled() {
		return value, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return "", ErrInvalidFormat
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", ErrInvalidFormat
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", ErrInvalidFormat
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidFormat
	}

	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value looks like Encrypt output: three
// colon-separated parts whose first two are exactly 32 hex characters.
// It does not verify that the value decrypts.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return false
	}
	return isHex32(parts[0]) && isHex32(parts[1])
}

func isHex32(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !('0' <= ch && ch <= '9' || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F') {
			return false
		}
	}
	return true
}

// GenerateKey returns a random 32-byte passphrase, hex encoded, suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
