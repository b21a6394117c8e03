package store

import (
	"context"
	"testing"

	"github.com/erazemk/stockmgtr/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetSecret_KeysAreIndependent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	jwtSecret, err := GetSecret(ctx, database, JWTSecretKey)
	if err != nil {
		t.Fatal(err)
	}
	sealingKey, err := GetSecret(ctx, database, SealingKeyKey)
	if err != nil {
		t.Fatal(err)
	}
	if jwtSecret == sealingKey {
		t.Fatal("expected distinct secrets per key")
	}
}

func TestLoadSealer_StableAcrossCalls(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	s1, err := LoadSealer(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	sealed := s1.Seal([]byte("refresh-token"), "session-1")

	s2, err := LoadSealer(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	opened, err := s2.Open(sealed, "session-1")
	if err != nil {
		t.Fatalf("Open with reloaded key: %v", err)
	}
	if string(opened) != "refresh-token" {
		t.Errorf("expected 'refresh-token', got %q", opened)
	}
}
