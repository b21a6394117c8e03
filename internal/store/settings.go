package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// Setting keys of the generated secrets.
const (
	JWTSecretKey  = "jwt_secret"
	SealingKeyKey = "sealing_key"
)

// GetSecret retrieves a 32-byte hex secret from the settings table.
// If none exists under key, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetSecret(ctx context.Context, db *sql.DB, key string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	// Always read back (either our insert or the existing value).
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	return secret, nil
}

// GetJWTSecret returns the cookie signing secret.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return GetSecret(ctx, db, JWTSecretKey)
}

// LoadSealer returns a Sealer keyed with the stored sealing key.
func LoadSealer(ctx context.Context, db *sql.DB) (*Sealer, error) {
	secret, err := GetSecret(ctx, db, SealingKeyKey)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", SealingKeyKey, err)
	}
	return NewSealer(key)
}
