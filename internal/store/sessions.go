package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
)

// Session is a signed-in browser session. Tokens hold the upstream pair in
// the clear; only the sealed form is stored.
type Session struct {
	ID           string
	Username     string
	Role         string
	Capabilities policy.Set
	Tokens       model.TokenPair
	CreatedAt    time.Time
	LastSeenAt   time.Time
	ExpiresAt    time.Time
}

// CreateSession stores a new session.
func CreateSession(ctx context.Context, db *sql.DB, sealer *Sealer, s *Session) error {
	caps, err := json.Marshal(s.Capabilities)
	if err != nil {
		return fmt.Errorf("encoding capabilities: %w", err)
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastSeenAt = s.CreatedAt

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, username, role, capabilities, access_token, refresh_token,
		                       created_at, last_seen_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Username, s.Role, string(caps),
		sealer.Seal([]byte(s.Tokens.Access), s.ID),
		sealer.Seal([]byte(s.Tokens.Refresh), s.ID),
		s.CreatedAt.Unix(), s.LastSeenAt.Unix(), s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// GetSession returns an unexpired session by ID.
func GetSession(ctx context.Context, db *sql.DB, sealer *Sealer, id string) (*Session, error) {
	var (
		s                    Session
		caps                 string
		access, refresh      []byte
		created, seen, until int64
	)
	err := db.QueryRowContext(ctx,
		`SELECT id, username, role, capabilities, access_token, refresh_token,
		        created_at, last_seen_at, expires_at
		 FROM sessions WHERE id = ? AND expires_at > ?`, id, time.Now().Unix(),
	).Scan(&s.ID, &s.Username, &s.Role, &caps, &access, &refresh, &created, &seen, &until)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	if err := json.Unmarshal([]byte(caps), &s.Capabilities); err != nil {
		return nil, fmt.Errorf("decoding capabilities: %w", err)
	}
	a, err := sealer.Open(access, s.ID)
	if err != nil {
		return nil, fmt.Errorf("opening access token: %w", err)
	}
	r, err := sealer.Open(refresh, s.ID)
	if err != nil {
		return nil, fmt.Errorf("opening refresh token: %w", err)
	}
	s.Tokens = model.TokenPair{Access: string(a), Refresh: string(r)}
	s.CreatedAt = time.Unix(created, 0)
	s.LastSeenAt = time.Unix(seen, 0)
	s.ExpiresAt = time.Unix(until, 0)
	return &s, nil
}

// UpdateSessionTokens replaces the stored token pair.
func UpdateSessionTokens(ctx context.Context, db *sql.DB, sealer *Sealer, id string, tokens model.TokenPair) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sessions SET access_token = ?, refresh_token = ? WHERE id = ?`,
		sealer.Seal([]byte(tokens.Access), id), sealer.Seal([]byte(tokens.Refresh), id), id,
	)
	if err != nil {
		return fmt.Errorf("updating session tokens: %w", err)
	}
	return nil
}

// ClearSessionTokens forgets the token pair but keeps the row, so the
// session reads as unauthenticated until it is deleted.
func ClearSessionTokens(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sessions SET access_token = NULL, refresh_token = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("clearing session tokens: %w", err)
	}
	return nil
}

// TouchSession records activity on a session.
func TouchSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// DeleteSession removes a session.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions past their expiry and returns their IDs.
func PurgeExpiredSessions(ctx context.Context, db *sql.DB) ([]string, error) {
	now := time.Now().Unix()
	rows, err := db.QueryContext(ctx, `SELECT id FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return nil, fmt.Errorf("listing expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing expired sessions: %w", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now); err != nil {
		return nil, fmt.Errorf("purging expired sessions: %w", err)
	}
	return ids, nil
}
