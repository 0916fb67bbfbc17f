package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// PASSWORD GATE
// ══════════════════════════════════════════════════════════════════════════════

// PasswordHeader carries the shared access password.
const PasswordHeader = "X-Access-Password"

// PasswordGate checks a shared password against a bcrypt hash. The password
// may come from PasswordHeader or from the password part of basic auth.
type PasswordGate struct {
	hash []byte
}

// NewPasswordGate creates a gate for hash. An empty hash admits everyone.
func NewPasswordGate(hash string) (*PasswordGate, error) {
	if hash == "" {
		return &PasswordGate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, err
	}
	return &PasswordGate{hash: []byte(hash)}, nil
}

// Enabled reports whether a password is required.
func (g *PasswordGate) Enabled() bool {
	return len(g.hash) > 0
}

// Allow reports whether r carries the right password.
func (g *PasswordGate) Allow(r *http.Request) bool {
	if !g.Enabled() {
		return true
	}

	password := r.Header.Get(PasswordHeader)
	if password == "" {
		_, password, _ = r.BasicAuth()
	}
	if password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}

// HashPassword returns a bcrypt hash suitable for NewPasswordGate.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
