// Package testutil holds small in-memory doubles shared by service tests.
package testutil

import (
	"encoding/json"
	"sync"

	"courier/internal/domain"
)

// MemKV is an in-memory LocalKV.
type MemKV struct {
	mu sync.Mutex
	m  map[string]json.RawMessage
}

func NewMemKV() *MemKV { return &MemKV{m: make(map[string]json.RawMessage)} }

func (s *MemKV) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (s *MemKV) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = raw
	return nil
}

func (s *MemKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

var _ domain.LocalKV = (*MemKV)(nil)
