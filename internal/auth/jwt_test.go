package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "sess-1", "admin", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.SessionID != "sess-1" {
		t.Errorf("expected session 'sess-1', got %q", claims.SessionID)
	}
	if claims.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "sess-1", "admin", "admin", time.Hour)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", "sess-1", "admin", "admin", -time.Minute)

	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, "sess-1", "test", "sales", DefaultSessionLifetime)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(DefaultSessionLifetime)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestUpstreamExpiry(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	// Signed with a key we do not share with the upstream API.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("upstream-only"))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := UpstreamExpiry(token)
	if !ok {
		t.Fatal("expected expiry to be read")
	}
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}

	if _, ok := UpstreamExpiry("opaque-token"); ok {
		t.Error("expected no expiry for an opaque token")
	}
}
