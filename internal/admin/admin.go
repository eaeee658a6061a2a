// Package admin gates the management endpoints behind a single static
// secret from configuration. The secret is injected at construction;
// nothing here reads the environment.
package admin

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Guard validates admin secrets. The configured value may be either a
// bcrypt hash (recognized by its "$2" prefix) or, for development, the
// plain secret itself.
type Guard struct {
	secret string
}

// NewGuard returns a guard for the configured secret, or nil when no
// secret is configured. A nil guard rejects everything: the admin
// surface is disabled, not open.
func NewGuard(secret string) *Guard {
	if secret == "" {
		return nil
	}
	return &Guard{secret: secret}
}

// Enabled reports whether an admin secret is configured.
func (g *Guard) Enabled() bool {
	return g != nil
}

// Validate checks a candidate secret against the configured one.
func (g *Guard) Validate(candidate string) bool {
	if g == nil || candidate == "" {
		return false
	}
	if strings.HasPrefix(g.secret, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(g.secret), []byte(candidate)) == nil
	}
	return g.secret == candidate
}

// Login validates the secret and returns the bearer token to use on
// subsequent requests. The token is the secret itself; there is no
// session state to manage.
func (g *Guard) Login(candidate string) (string, error) {
	if !g.Validate(candidate) {
		return "", ErrUnauthorized
	}
	return candidate, nil
}

// ValidateBearer parses an "Authorization: Bearer <secret>" header value
// and validates the embedded secret.
func (g *Guard) ValidateBearer(header string) bool {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	return g.Validate(strings.TrimSpace(header[len(prefix):]))
}
