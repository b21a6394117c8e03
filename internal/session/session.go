// Package session binds a browser session to its upstream token pair,
// capabilities and resource API.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/stockmgtr/internal/auth"
	"github.com/erazemk/stockmgtr/internal/cache"
	"github.com/erazemk/stockmgtr/internal/model"
	"github.com/erazemk/stockmgtr/internal/policy"
	"github.com/erazemk/stockmgtr/internal/stockapi"
	"github.com/erazemk/stockmgtr/internal/store"
	"github.com/erazemk/stockmgtr/internal/upstream"
)

// Session is a signed-in user. All upstream calls of a request go through
// API.
type Session struct {
	ID        string
	Username  string
	Role      string
	Caps      policy.Set
	ExpiresAt time.Time
	API       *stockapi.Service
}

// Client returns the session's upstream client.
func (s *Session) Client() *upstream.Client { return s.API.Client() }

// Config configures a Manager.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Lifetime   time.Duration
	TTLs       stockapi.TTLs
}

// Manager creates, resumes and ends sessions.
type Manager struct {
	db     *sql.DB
	sealer *store.Sealer
	cache  *cache.Cache
	cfg    Config
}

// NewManager returns a Manager. The base URL is validated up front.
func NewManager(db *sql.DB, sealer *store.Sealer, c *cache.Cache, cfg Config) (*Manager, error) {
	if _, err := upstream.New(cfg.BaseURL, cfg.HTTPClient, upstream.NewMemoryTokens(model.TokenPair{})); err != nil {
		return nil, err
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = auth.DefaultSessionLifetime
	}
	return &Manager{db: db, sealer: sealer, cache: c, cfg: cfg}, nil
}

// Lifetime returns the maximum session lifetime.
func (m *Manager) Lifetime() time.Duration { return m.cfg.Lifetime }

// LoginError is a failed sign-in. Message is safe to show to the user.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

func loginError(err error) error {
	ue, ok := upstream.AsError(err)
	if !ok {
		return &LoginError{Message: "Login failed. Please try again.", Err: err}
	}
	switch {
	case ue.Status == http.StatusUnauthorized:
		return &LoginError{Message: "Invalid username or password", Err: err}
	case ue.Status == http.StatusForbidden:
		return &LoginError{Message: "Account is disabled or not activated", Err: err}
	case ue.Status >= 500:
		return &LoginError{Message: "Server error. Please try again later.", Err: err}
	case ue.Status == 0:
		return &LoginError{Message: "Unable to reach the stock server. Please try again later.", Err: err}
	}
	return &LoginError{Message: ue.Message, Err: err}
}

// Login signs in upstream and loads the user's profile and capabilities.
// A session is stored only when all three succeed.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	tokens := upstream.NewMemoryTokens(model.TokenPair{})
	client, err := upstream.New(m.cfg.BaseURL, m.cfg.HTTPClient, tokens)
	if err != nil {
		return nil, err
	}

	if _, err := client.Login(ctx, username, password); err != nil {
		slog.Warn("login failed", "user", username, "status", upstream.StatusOf(err), "request_id", upstream.RequestID(ctx))
		return nil, loginError(err)
	}

	id := uuid.NewString()
	api := stockapi.New(client, nil, id, m.cfg.TTLs)
	profile, err := api.Profile(ctx)
	if err != nil {
		return nil, loginError(err)
	}
	caps, err := api.Permissions(ctx)
	if err != nil {
		return nil, loginError(err)
	}

	pair, err := tokens.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(m.cfg.Lifetime)
	if exp, ok := auth.UpstreamExpiry(pair.Refresh); ok && exp.Before(expires) {
		expires = exp
	}

	rec := &store.Session{
		ID:           id,
		Username:     profile.Username,
		Role:         profile.RoleName(),
		Capabilities: caps,
		Tokens:       pair,
		ExpiresAt:    expires,
	}
	if rec.Username == "" {
		rec.Username = username
	}
	if err := store.CreateSession(ctx, m.db, m.sealer, rec); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	slog.Info("user logged in", "user", rec.Username, "role", rec.Role, "request_id", upstream.RequestID(ctx))
	return m.open(rec)
}

// Resume returns the stored session with id, or nil if it does not exist,
// has expired or lost its tokens.
func (m *Manager) Resume(ctx context.Context, id string) (*Session, error) {
	rec, err := store.GetSession(ctx, m.db, m.sealer, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.Tokens.Access == "" && rec.Tokens.Refresh == "" {
		if err := m.Logout(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := store.TouchSession(ctx, m.db, id); err != nil {
		slog.Error("failed to touch session", "error", err)
	}
	return m.open(rec)
}

func (m *Manager) open(rec *store.Session) (*Session, error) {
	tokens := &dbTokens{db: m.db, sealer: m.sealer, id: rec.ID}
	client, err := upstream.New(m.cfg.BaseURL, m.cfg.HTTPClient, tokens)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        rec.ID,
		Username:  rec.Username,
		Role:      rec.Role,
		Caps:      rec.Capabilities,
		ExpiresAt: rec.ExpiresAt,
		API:       stockapi.New(client, m.cache, rec.ID, m.cfg.TTLs),
	}, nil
}

// Logout deletes the session and its cached reads.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if err := store.DeleteSession(ctx, m.db, id); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Purge(id)
	}
	return nil
}

// Expired reports whether err means the session can no longer reach the API.
func Expired(err error) bool {
	return errors.Is(err, upstream.ErrSessionExpired)
}

// Purge deletes expired sessions and stale cache entries.
func (m *Manager) Purge(ctx context.Context) (int, error) {
	ids, err := store.PurgeExpiredSessions(ctx, m.db)
	if err != nil {
		return 0, err
	}
	if m.cache != nil {
		for _, id := range ids {
			m.cache.Purge(id)
		}
		m.cache.Sweep()
	}
	return len(ids), nil
}

// dbTokens keeps a session's token pair in its database row.
type dbTokens struct {
	db     *sql.DB
	sealer *store.Sealer
	id     string
}

func (t *dbTokens) Tokens(ctx context.Context) (model.TokenPair, error) {
	rec, err := store.GetSession(ctx, t.db, t.sealer, t.id)
	if err != nil || rec == nil {
		return model.TokenPair{}, err
	}
	return rec.Tokens, nil
}

func (t *dbTokens) SetTokens(ctx context.Context, tokens model.TokenPair) error {
	return store.UpdateSessionTokens(ctx, t.db, t.sealer, t.id, tokens)
}

func (t *dbTokens) ClearTokens(ctx context.Context) error {
	return store.ClearSessionTokens(ctx, t.db, t.id)
}
