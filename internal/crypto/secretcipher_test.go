package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func newTestCipher(t *testing.T) *SecretCipher {
	t.Helper()
	c, err := NewSecretCipher("correct horse battery staple", true)
	if err != nil {
		t.Fatalf("NewSecretCipher() error: %v", err)
	}
	return c
}

func TestNewSecretCipher(t *testing.T) {
	tests := []struct {
		name           string
		passphrase     string
		productionLike bool
		wantErr        error
		wantEnabled    bool
	}{
		{"key in production", "k", true, nil, true},
		{"key in development", "k", false, nil, true},
		{"no key in development", "", false, nil, false},
		{"no key in production", "", true, ErrMissingKey, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewSecretCipher(tt.passphrase, tt.productionLike)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewSecretCipher() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", c.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	for _, plaintext := range []string{"sk_live_51Habc", "", "ünïcødé 🍕", strings.Repeat("x", 4096)} {
		enc, err := c.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) error: %v", plaintext, err)
		}
		if !IsEncrypted(enc) {
			t.Errorf("IsEncrypted(%q) = false for Encrypt output", enc)
		}
		got, err := c.Decrypt(enc)
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}
		if got != plaintext {
			t.Errorf("Decrypt() = %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptFormat(t *testing.T) {
	c := newTestCipher(t)
	enc, err := c.Encrypt("hello")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	parts := strings.Split(enc, ":")
	if len(parts) != 3 {
		t.Fatalf("Encrypt() produced %d parts, want 3", len(parts))
	}
	if len(parts[0]) != 32 || len(parts[1]) != 32 {
		t.Errorf("iv/tag hex lengths = %d/%d, want 32/32", len(parts[0]), len(parts[1]))
	}
	if len(parts[2]) != 2*len("hello") {
		t.Errorf("ciphertext hex length = %d, want %d", len(parts[2]), 2*len("hello"))
	}
	if enc != strings.ToLower(enc) {
		t.Errorf("Encrypt() output not lowercase hex: %q", enc)
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	c := newTestCipher(t)
	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	if a == b {
		t.Error("two encryptions of the same plaintext are identical")
	}
	if strings.Split(a, ":")[0] == strings.Split(b, ":")[0] {
		t.Error("IV reused across encryptions")
	}
}

// The stored layout is shared with the web app: verify Decrypt accepts a
// value assembled directly from the primitives.
func TestDecryptExternallyProducedValue(t *testing.T) {
	passphrase := "shared-with-frontend"
	key := sha256.Sum256([]byte(passphrase))
	block, _ := aes.NewCipher(key[:])
	aead, _ := cipher.NewGCMWithNonceSize(block, 16)
	iv := []byte("0123456789abcdef")
	sealed := aead.Seal(nil, iv, []byte("whatsapp-token"), nil)
	ct, tag := sealed[:len(sealed)-16], sealed[len(sealed)-16:]
	value := hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct)

	c, err := NewSecretCipher(passphrase, false)
	if err != nil {
		t.Fatalf("NewSecretCipher() error: %v", err)
	}
	got, err := c.Decrypt(value)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if got != "whatsapp-token" {
		t.Errorf("Decrypt() = %q, want whatsapp-token", got)
	}
}

func TestDecryptErrors(t *testing.T) {
	c := newTestCipher(t)
	valid, _ := c.Encrypt("secret")
	parts := strings.Split(valid, ":")

	tamperedCT := []byte(parts[2])
	if tamperedCT[0] == 'a' {
		tamperedCT[0] = 'b'
	} else {
		tamperedCT[0] = 'a'
	}

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{"two parts", parts[0] + ":" + parts[1], ErrInvalidFormat},
		{"four parts", valid + ":00", ErrInvalidFormat},
		{"no separators", "plaintext", ErrInvalidFormat},
		{"bad iv hex", "zz" + parts[0][2:] + ":" + parts[1] + ":" + parts[2], ErrInvalidFormat},
		{"short iv", parts[0][:30] + ":" + parts[1] + ":" + parts[2], ErrInvalidFormat},
		{"short tag", parts[0] + ":" + parts[1][:30] + ":" + parts[2], ErrInvalidFormat},
		{"odd ciphertext hex", parts[0] + ":" + parts[1] + ":" + parts[2] + "f", ErrInvalidFormat},
		{"tampered ciphertext", parts[0] + ":" + parts[1] + ":" + string(tamperedCT), ErrDecryptFailed},
		{"swapped iv and tag", parts[1] + ":" + parts[0] + ":" + parts[2], ErrDecryptFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decrypt() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc, _ := newTestCipher(t).Encrypt("secret")
	other, _ := NewSecretCipher("a different passphrase", false)
	if _, err := other.Decrypt(enc); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrDecryptFailed", err)
	}
}

func TestPassthroughCipher(t *testing.T) {
	c, err := NewSecretCipher("", false)
	if err != nil {
		t.Fatalf("NewSecretCipher() error: %v", err)
	}
	for _, v := range []string{"sk_test_123", "", "a:b:c"} {
		enc, err := c.Encrypt(v)
		if err != nil || enc != v {
			t.Errorf("Encrypt(%q) = %q, %v; want identity", v, enc, err)
		}
		dec, err := c.Decrypt(v)
		if err != nil || dec != v {
			t.Errorf("Decrypt(%q) = %q, %v; want identity", v, dec, err)
		}
	}
}

func TestIsEncrypted(t *testing.T) {
	hex32 := strings.Repeat("ab", 16)
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid", hex32 + ":" + hex32 + ":deadbeef", true},
		{"uppercase hex", strings.ToUpper(hex32) + ":" + hex32 + ":00", true},
		{"empty ciphertext", hex32 + ":" + hex32 + ":", true},
		{"plain text", "sk_live_123", false},
		{"empty", "", false},
		{"two parts", hex32 + ":" + hex32, false},
		{"four parts", hex32 + ":" + hex32 + ":00:00", false},
		{"short iv", hex32[:30] + ":" + hex32 + ":00", false},
		{"long tag", hex32 + ":" + hex32 + "00:00", false},
		{"non-hex iv", strings.Repeat("g", 32) + ":" + hex32 + ":00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEncrypted(tt.value); got != tt.want {
				t.Errorf("IsEncrypted(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGenerateKey(t *testing.T) {
	k1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	k2, _ := GenerateKey()
	if len(k1) != 64 {
		t.Errorf("GenerateKey() length = %d, want 64 hex chars", len(k1))
	}
	if k1 == k2 {
		t.Error("GenerateKey() returned the same key twice")
	}
}
