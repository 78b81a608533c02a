package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory implements KV in memory. Values round-trip through JSON so callers
// see the same decoding behavior as the durable stores.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// PutErr, when set, makes every Put fail. Used to simulate storage outages.
	PutErr error
	puts   int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get decodes the value stored under key.
func (m *Memory) Get(ctx context.Context, key string, v any) error {
	m.mu.RLock()
	raw, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(raw, v)
}

// Put stores v under key.
func (m *Memory) Put(ctx context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

// SetPutErr changes the simulated failure.
func (m *Memory) SetPutErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutErr = err
}

// Puts returns how many Put calls were made, including failed ones.
func (m *Memory) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
