// Package tiered composes the in-process session tier with an optional
// durable backing store. The in-process tier is authoritative while the
// process lives; durable writes are best-effort on the hot path.
package tiered

import (
	"context"
	"errors"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

type Store struct {
	mem     domain.SessionStore
	durable domain.SessionStore // nil when running memory-only
}

// New wires the two tiers. If the durable tier does not answer Ping the
// store degrades to memory-only and stays correct, just less durable.
func New(ctx context.Context, mem, durable domain.SessionStore) *Store {
	if durable != nil {
		if err := durable.Ping(ctx); err != nil {
			observability.Logger().Warn("durable session tier unreachable, running in-memory only", "error", err)
			durable = nil
		}
	}
	return &Store{mem: mem, durable: durable}
}

// Durable reports whether the backing store is attached.
func (s *Store) Durable() bool { return s.durable != nil }

func (s *Store) Put(ctx context.Context, session *domain.CallSession, ttl time.Duration) error {
	if err := s.mem.Put(ctx, session, ttl); err != nil {
		return err
	}
	if s.durable != nil {
		if err := s.durable.Put(ctx, session, ttl); err != nil {
			observability.LoggerFromContext(ctx).Warn("durable session write failed",
				"call_sid", session.CallID, "error", errors.Join(domain.ErrStoreUnavailable, err))
		}
	}
	return nil
}

// Get prefers the in-process tier. A durable hit after a process restart is
// re-primed into memory before being returned.
func (s *Store) Get(ctx context.Context, id domain.CallID) (*domain.CallSession, error) {
	session, err := s.mem.Get(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) || s.durable == nil {
		return nil, err
	}

	session, derr := s.durable.Get(ctx, id)
	if derr != nil {
		if errors.Is(derr, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		observability.LoggerFromContext(ctx).Warn("durable session read failed", "call_sid", id, "error", derr)
		return nil, domain.ErrSessionNotFound
	}
	// Recovered record: keep it alive in memory for its remaining life. The
	// exact remaining TTL lives in the durable tier; re-arming is handled by
	// the next Put, so a short grace window is enough here.
	_ = s.mem.Put(ctx, session, time.Minute)
	return session, nil
}

func (s *Store) Delete(ctx context.Context, id domain.CallID) error {
	if err := s.mem.Delete(ctx, id); err != nil {
		return err
	}
	if s.durable != nil {
		if err := s.durable.Delete(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Warn("durable session delete failed", "call_sid", id, "error", err)
		}
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id domain.CallID, ttl time.Duration) error {
	if err := s.mem.Touch(ctx, id, ttl); err != nil {
		return err
	}
	if s.durable != nil {
		if err := s.durable.Touch(ctx, id, ttl); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			observability.LoggerFromContext(ctx).Warn("durable session touch failed", "call_sid", id, "error", err)
		}
	}
	return nil
}

// Active merges both tiers: in-process sessions plus durable rows this
// process has not seen, so a restarted process can sweep what it inherited.
func (s *Store) Active(ctx context.Context) ([]*domain.CallSession, error) {
	sessions, err := s.mem.Active(ctx)
	if err != nil || s.durable == nil {
		return sessions, err
	}

	seen := make(map[domain.CallID]bool, len(sessions))
	for _, session := range sessions {
		seen[session.CallID] = true
	}

	inherited, derr := s.durable.Active(ctx)
	if derr != nil {
		observability.LoggerFromContext(ctx).Warn("durable session list failed", "error", derr)
		return sessions, nil
	}
	for _, session := range inherited {
		if !seen[session.CallID] {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// Ping reflects the authoritative tier only; a lost durable tier is a
// degradation, not an outage.
func (s *Store) Ping(ctx context.Context) error {
	return s.mem.Ping(ctx)
}

func (s *Store) Close() error {
	if s.durable != nil {
		if err := s.durable.Close(); err != nil {
			observability.Logger().Warn("closing durable session tier", "error", err)
		}
	}
	return s.mem.Close()
}
