package store

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a MemoryProvider after Close.
var ErrClosed = errors.New("store: provider closed")

// MemoryProvider implements the Provider interface with an in-process map.
// Data does not survive the process.
type MemoryProvider struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string]string)}
}

// Get retrieves the value stored under key.
func (m *MemoryProvider) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (m *MemoryProvider) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.data[key] = value
	return nil
}

// Close marks the provider closed. Subsequent calls fail with ErrClosed.
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
