package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	franchiseID := int64(7)
	token, exp, err := m.GenerateToken(42, "orderManager", &franchiseID)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry not in the future: %s", exp)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("user id mismatch: got %d want 42", claims.UserID)
	}
	if claims.Role != "orderManager" {
		t.Errorf("role mismatch: got %q", claims.Role)
	}
	if claims.FranchiseID == nil || *claims.FranchiseID != 7 {
		t.Errorf("franchise id mismatch: got %v", claims.FranchiseID)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	m1 := NewTokenManager("secret-a", time.Hour)
	m2 := NewTokenManager("secret-b", time.Hour)

	token, _, err := m1.GenerateToken(1, "user", nil)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := m2.ParseToken(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute)

	token, _, err := m.GenerateToken(1, "user", nil)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := m.ParseToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}
