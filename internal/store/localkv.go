package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"courier/internal/domain"
)

const kvFile = "local_kv.json"

// KV is file-backed local key/value storage. Values are stored as raw JSON in
// a single file, rewritten atomically on every Set.
type KV struct {
	path string
	mu   sync.Mutex
}

// NewKV returns a KV rooted at dir.
func NewKV(dir string) *KV {
	return &KV{path: filepath.Join(dir, kvFile)}
}

// Get unmarshals the value stored under key into out. It reports false when
// the key is absent.
func (s *KV) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return false, err
	}
	raw, exists := m[key]
	if !exists {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

// Set stores v under key.
func (s *KV) Set(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = raw
	return writeJSON(s.path, m, 0o600)
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *KV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := m[key]; !exists {
		return nil
	}
	delete(m, key)
	return writeJSON(s.path, m, 0o600)
}

func (s *KV) load() (map[string]json.RawMessage, error) {
	m := make(map[string]json.RawMessage)
	if err := readJSON(s.path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var _ domain.LocalKV = (*KV)(nil)
