// Package tokenstore persists the client's session token behind a small
// interface so the storage medium can be swapped without touching session logic.
package tokenstore

import (
	"context"
	"sync"
)

// TokenStore loads, saves and clears the persisted session token.
// Load returns an empty string when no token is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Memory keeps the token in process memory. Used by tests and one-shot runs.
type Memory struct {
	mu    sync.RWMutex
	token string
}

func NewMemory(initial string) *Memory {
	return &Memory{token: initial}
}

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
