package security

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	pkgerrors "github.com/hostelmart/hostelmart-backend/pkg/errors"
)

// AdminGate checks the shared admin password sent with privileged requests.
type AdminGate struct {
	plain []byte
	hash  []byte
}

// NewAdminGate prefers a bcrypt hash when one is configured and falls back to the plain secret.
func NewAdminGate(plain, hash string) (*AdminGate, error) {
	plain = strings.TrimSpace(plain)
	hash = strings.TrimSpace(hash)
	if plain == "" && hash == "" {
		return nil, fmt.Errorf("admin password or hash required")
	}
	gate := &AdminGate{}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		gate.hash = []byte(hash)
		return gate, nil
	}
	gate.plain = []byte(plain)
	return gate, nil
}

// Verify returns an UNAUTHORIZED error when the password does not match.
func (g *AdminGate) Verify(password string) error {
	if g == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin access not configured")
	}
	if password == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "admin password required")
	}
	if len(g.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "wrong admin password")
		}
		return nil
	}
	if subtle.ConstantTimeCompare(g.plain, []byte(password)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "wrong admin password")
	}
	return nil
}

// HashAdminPassword produces a bcrypt hash suitable for HOSTELMART_ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(hash), nil
}
