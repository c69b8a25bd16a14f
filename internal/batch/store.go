package batch

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps upload sessions in memory. Sessions are short-lived staging
// areas, so they expire after a TTL rather than being persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore constructs a session store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new empty session and returns it.
func (st *Store) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.purgeLocked()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: st.now().UTC(),
	}
	st.sessions[s.ID] = s
	return s
}

// Get returns the session with the given id, if it exists and has not
// expired.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.purgeLocked()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, id)
}

func (st *Store) purgeLocked() {
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(st.sessions, id)
		}
	}
}
