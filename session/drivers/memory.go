package drivers

import (
	"context"
	"sync"

	synister "github.com/ChitterSync/SynisterChat"
	"github.com/ChitterSync/SynisterChat/session"
)

// InMemoryStore implements session.Medium and session.Accounts with nested
// maps. Contents are lost on exit.
type InMemoryStore struct {
	mu       sync.RWMutex
	blobs    map[string]map[string][]byte
	accounts map[string]struct{}
}

// NewInMemoryStore creates an empty in-memory medium.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		blobs:    make(map[string]map[string][]byte),
		accounts: make(map[string]struct{}),
	}
}

// Load implements session.Medium.
func (s *InMemoryStore) Load(ctx context.Context, owner, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[owner][id]
	if !ok {
		return nil, synister.ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

// Save implements session.Medium.
func (s *InMemoryStore) Save(ctx context.Context, owner, id string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blobs == nil {
		return synister.ErrClosed
	}
	sessions, ok := s.blobs[owner]
	if !ok {
		sessions = make(map[string][]byte)
		s.blobs[owner] = sessions
	}
	sessions[id] = append([]byte(nil), blob...)
	return nil
}

// Remove implements session.Medium.
func (s *InMemoryStore) Remove(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs[owner], id)
	if len(s.blobs[owner]) == 0 {
		delete(s.blobs, owner)
	}
	return nil
}

// List implements session.Medium.
func (s *InMemoryStore) List(ctx context.Context, owner string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.blobs[owner]))
	for id, blob := range s.blobs[owner] {
		out[id] = append([]byte(nil), blob...)
	}
	return out, nil
}

// Exists implements session.Accounts.
func (s *InMemoryStore) Exists(ctx context.Context, owner string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[owner]
	return ok, nil
}

// Provision implements session.Accounts.
func (s *InMemoryStore) Provision(ctx context.Context, owner string) error {
	if owner == "" {
		return synister.ErrOwnerNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accounts == nil {
		return synister.ErrClosed
	}
	s.accounts[owner] = struct{}{}
	return nil
}

// Close implements session.Medium.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs = nil
	s.accounts = nil
	return nil
}

var (
	_ session.Medium   = (*InMemoryStore)(nil)
	_ session.Accounts = (*InMemoryStore)(nil)
)
