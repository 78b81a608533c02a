package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONStore implements KV using a single JSON file.
type JSONStore struct {
	path    string
	entries map[string]json.RawMessage
	mu      sync.RWMutex
}

// fileData is the JSON structure for the store file.
type fileData struct {
	Version   int                        `json:"version"`
	UpdatedAt string                     `json:"updated_at"`
	Entries   map[string]json.RawMessage `json:"entries"`
}

const currentVersion = 1

// NewJSONStore opens the store at path, loading it if the file exists.
// The file is created on first Put.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return s, nil
}

// DefaultPath returns ~/.focus/state.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".focus", "state.json"), nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored fileData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if stored.Entries != nil {
		s.entries = stored.Entries
	}
	return nil
}

// save writes the whole file. Caller holds the write lock.
func (s *JSONStore) save() error {
	stored := fileData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Entries:   s.entries,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get decodes the value stored under key.
func (s *JSONStore) Get(ctx context.Context, key string, v any) error {
	s.mu.RLock()
	raw, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Put stores v under key and rewrites the file.
func (s *JSONStore) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.entries[key]
	s.entries[key] = raw
	if err := s.save(); err != nil {
		// keep memory consistent with disk
		if had {
			s.entries[key] = prev
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

// Close is a no-op; every Put is already on disk.
func (s *JSONStore) Close() error {
	return nil
}
