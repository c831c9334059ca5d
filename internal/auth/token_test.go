package auth

import (
	"testing"
	"time"
)

func TestNewSessionToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewSessionToken()
		if err != nil {
			t.Fatalf("NewSessionToken() error = %v", err)
		}
		if len(tok) != 43 {
			t.Fatalf("NewSessionToken() length = %d, want 43", len(tok))
		}
		if seen[tok] {
			t.Fatalf("NewSessionToken() repeated %q", tok)
		}
		seen[tok] = true
	}
}

func TestTokenDigest(t *testing.T) {
	if TokenDigest("abc") != TokenDigest("abc") {
		t.Error("TokenDigest() is not deterministic")
	}
	if TokenDigest("abc") == TokenDigest("abd") {
		t.Error("TokenDigest() collides")
	}
	if TokenDigest("abc") == "abc" {
		t.Error("TokenDigest() returned the token unchanged")
	}
}

// =========================================================================
// STATE TESTS
// =========================================================================

func newTestStateService(t *testing.T) *StateService {
	t.Helper()
	s, err := NewStateService("test-state-secret-0123456789")
	if err != nil {
		t.Fatalf("NewStateService() error = %v", err)
	}
	return s
}

func TestState_RoundTrip(t *testing.T) {
	s := newTestStateService(t)

	state, err := s.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := s.Validate(state)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != "user-123" {
		t.Errorf("Validate() = %q, want user-123", got)
	}
}

func TestState_ExpiresAfterTenMinutes(t *testing.T) {
	s := newTestStateService(t)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	state, err := s.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	s.now = func() time.Time { return issued.Add(9 * time.Minute) }
	if _, err := s.Validate(state); err != nil {
		t.Errorf("Validate() at 9m error = %v", err)
	}

	s.now = func() time.Time { return issued.Add(11 * time.Minute) }
	if _, err := s.Validate(state); err == nil {
		t.Error("Validate() should fail after ten minutes")
	}
}

func TestState_WrongSecretAndGarbage(t *testing.T) {
	s := newTestStateService(t)
	other, _ := NewStateService("a-different-secret-0123456789")

	state, _ := other.Generate("user-123")
	if _, err := s.Validate(state); err == nil {
		t.Error("Validate() accepted a state signed with another secret")
	}
	for _, bad := range []string{"", "not.a.jwt", state[:len(state)-3] + "xxx"} {
		if _, err := s.Validate(bad); err == nil {
			t.Errorf("Validate(%q) should fail", bad)
		}
	}
}

func TestNewStateService_ShortSecret(t *testing.T) {
	if _, err := NewStateService("short"); err == nil {
		t.Fatal("NewStateService() should reject short secrets")
	}
}

// =========================================================================
// CIPHER TESTS
// =========================================================================

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTokenCipher("passphrase")
	if err != nil {
		t.Fatalf("NewTokenCipher() error = %v", err)
	}

	sealed, err := c.Encrypt("gho_secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if sealed == "gho_secret" {
		t.Fatal("Encrypt() returned plaintext")
	}
	again, _ := c.Encrypt("gho_secret")
	if again == sealed {
		t.Error("Encrypt() reused a nonce")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain != "gho_secret" {
		t.Errorf("Decrypt() = %q, want gho_secret", plain)
	}
}

func TestTokenCipher_RejectsForeignOrTampered(t *testing.T) {
	c, _ := NewTokenCipher("passphrase")
	other, _ := NewTokenCipher("another passphrase")

	sealed, _ := c.Encrypt("gho_secret")
	if _, err := other.Decrypt(sealed); err == nil {
		t.Error("Decrypt() with a different key should fail")
	}

	raw := []byte(sealed)
	mid := len(raw) / 2
	if raw[mid] == 'A' {
		raw[mid] = 'B'
	} else {
		raw[mid] = 'A'
	}
	if _, err := c.Decrypt(string(raw)); err == nil {
		t.Error("Decrypt() of a tampered ciphertext should fail")
	}
	if _, err := c.Decrypt("short"); err == nil {
		t.Error("Decrypt() of a short input should fail")
	}
}

func TestNewTokenCipher_EmptyKey(t *testing.T) {
	if _, err := NewTokenCipher(""); err == nil {
		t.Fatal("NewTokenCipher() should reject an empty key")
	}
}
