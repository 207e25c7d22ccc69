package session

import (
	"context"
	"sync"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// MemoryStore keeps sessions in process memory. The default store for a
// single-instance deployment; swap in the redis store when the portal runs
// behind more than one replica.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[kernel.SessionID]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[kernel.SessionID]*Session)}
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, id kernel.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound()
	}
	cp := *sess
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id kernel.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
