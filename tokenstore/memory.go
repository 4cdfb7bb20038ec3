package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore keeps the pair in process memory. Each instance is an isolated session.
type MemoryStore struct {
	mu      sync.RWMutex
	access  string
	refresh string
	profile []byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context, kind Kind) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v string
	switch kind {
	case Access:
		v = s.access
	case Refresh:
		v = s.refresh
	}
	return v, v != ""
}

func (s *MemoryStore) Set(_ context.Context, access, refresh string) error {
	if err := validatePair(access, refresh); err != nil {
		return err
	}
	s.mu.Lock()
	s.access, s.refresh, s.profile = access, refresh, nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.access, s.refresh, s.profile = "", "", nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Profile(context.Context) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.profile) == 0 {
		return nil, false
	}
	return cloneBytes(s.profile), true
}

func (s *MemoryStore) SetProfile(_ context.Context, profile []byte) error {
	s.mu.Lock()
	s.profile = cloneBytes(profile)
	s.mu.Unlock()
	return nil
}
