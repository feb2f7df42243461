package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// TestNewAccessTokenClaims signs a token and verifies its claims round-trip.
func TestNewAccessTokenClaims(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "ADMIN", 15)
	if err != nil {
		t.Fatalf("NewAccessToken returned error: %v", err)
	}
	parsed, err := jwt.Parse(tok.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["role"] != "ADMIN" {
		t.Fatalf("expected role ADMIN, got %v", claims["role"])
	}
	if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
		t.Fatalf("expected sub 42, got %v", claims["sub"])
	}
}

// TestRefreshTokenHashing ensures the raw token and its stored hash differ
// and that hashing is deterministic.
func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken returned error: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("expected 96 hex chars, got %d", len(rt.Raw))
	}
	h1 := HashRefreshRaw(rt.Raw)
	h2 := HashRefreshRaw(rt.Raw)
	if h1 != h2 {
		t.Fatalf("hash is not deterministic")
	}
	if h1 == rt.Raw {
		t.Fatalf("hash must differ from the raw token")
	}
	if len(h1) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d", len(h1))
	}
}
