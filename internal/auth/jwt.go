// Package auth - jwt.go handles access token creation, signing and
// verification with a shared secret, including lazy secret initialization.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTSecretEnv names the variable holding the signing secret.
const JWTSecretEnv = "MENUHUB_JWT_SECRET"

const issuer = "menuhub"

var (
	// jwtSecret holds the validated JWT secret
	jwtSecret     string
	jwtSecretOnce sync.Once
	jwtSecretErr  error
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// isDevMode mirrors config's environment detection without importing it.
func isDevMode() bool {
	devMode := os.Getenv("DEV_MODE")
	if devMode == "true" || devMode == "1" {
		return true
	}
	for _, key := range []string{"MENUHUB_APP_ENVIRONMENT", "APP_ENV", "NODE_ENV"} {
		if v := strings.ToLower(os.Getenv(key)); v != "" {
			return v == "development" || v == "test"
		}
	}
	return os.Getenv("GIN_MODE") == "debug"
}

// generateRandomSecret creates a cryptographically secure random secret
func generateRandomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("dev-fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// ValidateJWTSecret checks that the signing secret is configured. Outside
// development it fails when MENUHUB_JWT_SECRET is unset; in development a
// random secret is generated and sessions do not survive restarts.
// Call this at application startup.
func ValidateJWTSecret() error {
	jwtSecretOnce.Do(func() {
		secret := os.Getenv(JWTSecretEnv)

		if secret == "" {
			if isDevMode() {
				jwtSecret = generateRandomSecret()
				log.Printf("WARNING: %s not set. Using auto-generated secret for development.", JWTSecretEnv)
				log.Printf("WARNING: Sessions will not persist across restarts. Set %s for persistent sessions.", JWTSecretEnv)
			} else {
				jwtSecretErr = fmt.Errorf("SECURITY ERROR: %s environment variable is required in production. "+
					"Generate a secure secret with: openssl rand -hex 32", JWTSecretEnv)
			}
			return
		}

		if len(secret) < 32 {
			log.Printf("WARNING: %s is shorter than recommended 32 characters. Consider using a longer secret.", JWTSecretEnv)
		}

		jwtSecret = secret
	})

	return jwtSecretErr
}

// GetJWTSecret retrieves the validated JWT secret.
// Panics if the secret cannot be validated.
func GetJWTSecret() string {
	if jwtSecret == "" {
		if err := ValidateJWTSecret(); err != nil {
			panic(err)
		}
	}
	return jwtSecret
}

// GenerateJWT creates an access token for an authenticated user
func GenerateJWT(userID, email string, isAdmin bool, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(GetJWTSecret()))
}

// ValidateJWT parses and validates an access token
func ValidateJWT(tokenString string) (*Claims, error) {
	secret := GetJWTSecret()

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// ErrRefreshWindowExceeded is returned when a token is too old to refresh.
var ErrRefreshWindowExceeded = errors.New("token is too old to refresh")

// CanRefresh reports whether claims were issued within window of now. The
// token itself must already have passed ValidateJWT.
func CanRefresh(claims *Claims, window time.Duration, now time.Time) error {
	if claims.IssuedAt == nil {
		return ErrRefreshWindowExceeded
	}
	if window > 0 && now.Sub(claims.IssuedAt.Time) > window {
		return ErrRefreshWindowExceeded
	}
	return nil
}
