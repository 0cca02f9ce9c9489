// Package memory provides the in-process session tier. It is the
// authoritative tier on the hot path; expiry is enforced lazily on read and
// by the manager's periodic sweep.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

type entry struct {
	session   *domain.CallSession
	expiresAt time.Time
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.CallID]entry
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.CallID]entry),
		now:      time.Now,
	}
}

// Put replaces the whole record for the session's call SID. Clones on the
// way in so the caller keeps no handle on stored state.
func (s *SessionStore) Put(_ context.Context, session *domain.CallSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.CallID] = entry{
		session:   session.Clone(),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get returns a clone of the stored session, or ErrSessionNotFound once the
// TTL has elapsed.
func (s *SessionStore) Get(_ context.Context, id domain.CallID) (*domain.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (s *SessionStore) Delete(_ context.Context, id domain.CallID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Touch(_ context.Context, id domain.CallID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || s.now().After(e.expiresAt) {
		return domain.ErrSessionNotFound
	}
	e.expiresAt = s.now().Add(ttl)
	s.sessions[id] = e
	return nil
}

// Active lists every session still held in the map, TTL-lapsed ones
// included: the expiry sweep needs those to transition them to EXPIRED and
// record them in the call-history log. Get is where expiry hides a record.
func (s *SessionStore) Active(_ context.Context) ([]*domain.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.CallSession, 0, len(s.sessions))
	for _, e := range s.sessions {
		out = append(out, e.session.Clone())
	}
	return out, nil
}

func (s *SessionStore) Ping(_ context.Context) error { return nil }

func (s *SessionStore) Close() error { return nil }

// SetClock overrides the time source. Test seam.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
