// Package oidc implements OpenID Connect login for dashboard users. It runs
// the authorization code flow with PKCE against any discovery-capable issuer
// and returns the verified identity of the user.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/menuhub/menuhub/internal/config"
)

// Identity is the verified subset of ID token claims the service relies on.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// ErrMissingIDToken is returned when the token response carries no id_token.
var ErrMissingIDToken = errors.New("token response has no id_token")

// OIDCProvider wraps a discovered OIDC issuer
type OIDCProvider struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
}

// NewOIDCProvider runs issuer discovery. ctx bounds the discovery request.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("OIDC is not enabled")
	}
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("OIDC client secret is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	return &OIDCProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

// NewVerifier returns a random PKCE code verifier for one login attempt.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthURL returns the authorization URL for state, bound to the PKCE
// verifier that Login will later present.
func (p *OIDCProvider) AuthURL(state, verifier string) string {
	return p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Login exchanges the authorization code, verifies the ID token and returns
// the identity it asserts.
func (p *OIDCProvider) Login(ctx context.Context, code, verifier string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return identityFrom(idToken)
}

func identityFrom(idToken *oidc.IDToken) (*Identity, error) {
	var claims struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}

	if idToken.Subject == "" {
		return nil, fmt.Errorf("ID token missing 'sub' claim")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("ID token missing 'email' claim")
	}

	id := &Identity{
		Subject: idToken.Subject,
		Email:   strings.ToLower(claims.Email),
		Name:    claims.Name,
		// Issuers that omit the claim are trusted to have verified the address.
		EmailVerified: claims.EmailVerified == nil || *claims.EmailVerified,
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	return id, nil
}
