package upstream

import (
	"context"
	"sync"

	"github.com/erazemk/stockmgtr/internal/model"
)

// TokenStore holds the bearer token pair of one session.
type TokenStore interface {
	Tokens(ctx context.Context) (model.TokenPair, error)
	SetTokens(ctx context.Context, tokens model.TokenPair) error
	ClearTokens(ctx context.Context) error
}

// MemoryTokens is a TokenStore kept in memory.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens model.TokenPair
}

// NewMemoryTokens returns a store holding tokens.
func NewMemoryTokens(tokens model.TokenPair) *MemoryTokens {
	return &MemoryTokens{tokens: tokens}
}

func (m *MemoryTokens) Tokens(context.Context) (model.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryTokens) SetTokens(_ context.Context, tokens model.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	return nil
}

func (m *MemoryTokens) ClearTokens(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = model.TokenPair{}
	return nil
}
