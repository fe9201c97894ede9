// Package services implements business logic that spans repositories and the
// crypto layer. Handlers call into it instead of touching ciphertext directly.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/menuhub/menuhub/internal/crypto"
	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/db/repositories"
)

var (
	// ErrInvalidProvider is returned for provider names outside [a-z0-9_-]{1,64}.
	ErrInvalidProvider = errors.New("invalid provider name")
	// ErrEmptySecret is returned when asked to store an empty value.
	ErrEmptySecret = errors.New("secret value is required")
)

var providerPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

const hintMask = "••••"

// SecretSummary is what the API exposes about a stored secret.
type SecretSummary struct {
	Provider  string    `json:"provider"`
	Encrypted bool      `json:"encrypted"`
	Hint      string    `json:"hint"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SecretsService encrypts integration secrets before they reach the database.
type SecretsService struct {
	repo   *repositories.SecretRepository
	cipher *crypto.SecretCipher
}

// NewSecretsService creates a new secrets service
func NewSecretsService(repo *repositories.SecretRepository, cipher *crypto.SecretCipher) *SecretsService {
	return &SecretsService{repo: repo, cipher: cipher}
}

// NormalizeProvider lowercases and validates a provider name.
func NormalizeProvider(provider string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(provider))
	if !providerPattern.MatchString(p) {
		return "", ErrInvalidProvider
	}
	return p, nil
}

// Put encrypts value and stores it for the organization, replacing any
// previous value for the same provider.
func (s *SecretsService) Put(ctx context.Context, orgID, provider, value string) (*SecretSummary, error) {
	provider, err := NormalizeProvider(provider)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return nil, ErrEmptySecret
	}

	encrypted, err := s.cipher.Encrypt(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	secret := &models.IntegrationSecret{OrganizationID: orgID, Provider: provider, Value: encrypted}
	if err := s.repo.Upsert(ctx, secret); err != nil {
		return nil, err
	}
	return &SecretSummary{
		Provider:  provider,
		Encrypted: crypto.IsEncrypted(encrypted),
		Hint:      hint(value),
		UpdatedAt: secret.UpdatedAt,
	}, nil
}

// List returns masked summaries of an organization's secrets. A value that
// cannot be decrypted is listed without a hint.
func (s *SecretsService) List(ctx context.Context, orgID string) ([]SecretSummary, error) {
	secrets, err := s.repo.List(ctx, orgID)
	if err != nil {
		return nil, err
	}

	out := make([]SecretSummary, 0, len(secrets))
	for _, sec := range secrets {
		summary := SecretSummary{
			Provider:  sec.Provider,
			Encrypted: crypto.IsEncrypted(sec.Value),
			UpdatedAt: sec.UpdatedAt,
		}
		if plain, err := s.plaintext(sec.Value); err != nil {
			slog.Warn("failed to decrypt secret for listing",
				"organization_id", orgID, "provider", sec.Provider, "error", err)
		} else {
			summary.Hint = hint(plain)
		}
		out = append(out, summary)
	}
	return out, nil
}

// Delete removes a secret and reports whether it existed.
func (s *SecretsService) Delete(ctx context.Context, orgID, provider string) (bool, error) {
	provider, err := NormalizeProvider(provider)
	if err != nil {
		return false, err
	}
	return s.repo.Delete(ctx, orgID, provider)
}

// EncryptLegacy encrypts every stored value that is still plaintext and
// returns how many rows were rewritten. Without a key it does nothing.
func (s *SecretsService) EncryptLegacy(ctx context.Context) (int, error) {
	if !s.cipher.Enabled() {
		return 0, nil
	}

	secrets, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, sec := range secrets {
		if crypto.IsEncrypted(sec.Value) {
			continue
		}
		encrypted, err := s.cipher.Encrypt(sec.Value)
		if err != nil {
			return n, fmt.Errorf("failed to encrypt secret %s: %w", sec.ID, err)
		}
		if err := s.repo.UpdateValue(ctx, sec.ID, encrypted); err != nil {
			return n, err
		}
		slog.Info("encrypted legacy secret", "organization_id", sec.OrganizationID, "provider", sec.Provider)
		n++
	}
	return n, nil
}

// plaintext decrypts stored values, passing through rows written before a
// key was configured.
func (s *SecretsService) plaintext(stored string) (string, error) {
	if !crypto.IsEncrypted(stored) {
		return stored, nil
	}
	return s.cipher.Decrypt(stored)
}

// hint shows the last four characters of a secret, or only the mask for
// values too short to reveal anything.
func hint(plain string) string {
	r := []rune(plain)
	if len(r) <= 8 {
		return hintMask
	}
	return hintMask + string(r[len(r)-4:])
}
