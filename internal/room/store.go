// internal/room/store.go
package room

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store holds the active waiting rooms in memory with thread-safe access.
type Store struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Session
}

// NewStore initializes and returns an empty Store.
func NewStore() *Store {
	return &Store{
		rooms: make(map[uuid.UUID]*Session),
	}
}

// Add registers a session. Wire its OnEmpty callback to Delete before
// adding so empty rooms clean themselves up.
func (s *Store) Add(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[sess.ID]; exists {
		log.Warnf("room store: room %s already exists, not overwriting", sess.ID)
		return
	}
	s.rooms[sess.ID] = sess
}

// Delete removes a session by ID. Typically called via OnEmpty.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[id]; !exists {
		log.Warnf("room store: delete of unknown room %s", id)
		return
	}
	delete(s.rooms, id)
	log.Infof("room store: deleted room %s", id)
}

// Get retrieves a session by ID.
func (s *Store) Get(id uuid.UUID) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rooms[id]
	return sess, ok
}

// Snapshots returns the public snapshot of every active room, for the lobby
// listing. Sessions are snapshotted outside the store lock.
func (s *Store) Snapshots() []Info {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.rooms))
	for _, sess := range s.rooms {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	infos := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Snapshot())
	}
	return infos
}
