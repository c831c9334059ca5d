// Package auth handles login codes, session tokens, OAuth state and the session middleware.
//
// A login code is a 4-digit number (1000-9999) handed to the user once at
// registration and used in place of a password afterwards.
//
// TWO STORED FORMS, NEVER THE CODE ITSELF:
//
//	code_hash   = bcrypt(code)             the credential, checked on login
//	code_digest = HMAC-SHA256(secret, code) unique, used for lookup and collisions
//
// bcrypt salts every hash, so two users with the same code get different
// hashes and a UNIQUE index on code_hash would never fire. The keyed digest
// is deterministic, which is what a uniqueness check and an indexed lookup
// need. Without the secret an attacker holding a copy of the database cannot
// enumerate the 9000 possible codes against the digest column.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	minCode = 1000
	maxCode = 9999

	defaultCost = 12
)

// CodeService generates, hashes and verifies login codes.
//
// It's a struct so that the bcrypt cost can be injected: tests use the
// minimum cost (4) to stay fast.
type CodeService struct {
	cost   int
	secret []byte
}

// NewCodeService creates a CodeService. secret keys the lookup digest and
// must stay stable for the lifetime of the database; cost <= 0 selects the
// default bcrypt cost.
func NewCodeService(secret string, cost int) (*CodeService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: login code secret must be at least 16 characters")
	}
	if cost <= 0 {
		cost = defaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range", cost)
	}
	return &CodeService{cost: cost, secret: []byte(secret)}, nil
}

// Generate returns a uniformly random code in [1000, 9999] from crypto/rand.
func (s *CodeService) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("auth: generating login code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()+minCode), nil
}

// Hash returns the bcrypt hash stored as the credential.
func (s *CodeService) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing login code: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext code against a stored bcrypt hash.
// Returns nil if they match.
func (s *CodeService) Verify(hash, code string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid login code")
		}
		return fmt.Errorf("auth: comparing login code hash: %w", err)
	}
	return nil
}

// Digest returns the hex HMAC-SHA256 of code under the service secret.
func (s *CodeService) Digest(code string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidCode reports whether s has the shape of a login code: exactly four
// ASCII digits. Anything else can be rejected without touching the database.
func ValidCode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
