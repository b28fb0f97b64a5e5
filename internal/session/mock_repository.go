package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository, used in
// tests and by `vitrin dev` when no database is configured.
type MockRepository struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

// NewMockRepository creates a new instance of MockRepository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		sessions: make(map[string]Session),
	}
}

// GetByID returns a session by its ID.
func (r *MockRepository) GetByID(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return &s, nil
}

// Create adds a new session.
func (r *MockRepository) Create(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	r.sessions[session.ID] = *session
	return nil
}

// Update modifies an existing session.
func (r *MockRepository) Update(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[session.ID]
	if !ok {
		return fmt.Errorf("session %s not found for update", session.ID)
	}
	session.UpdatedAt = time.Now()
	r.sessions[session.ID] = *session
	return nil
}

// Delete removes a session by its ID.
func (r *MockRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteStale removes sessions untouched for longer than ttl.
func (r *MockRepository) DeleteStale(ttl time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	var n int64
	for id, s := range r.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
