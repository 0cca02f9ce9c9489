// Package firestore provides a Firestore-backed durable session tier for
// deployments where the service runs on GCP and a local file is not an
// option.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// New creates a Firestore store in the given project.
func New(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("call_sessions")
}

func (s *Store) sessionDoc(id domain.CallID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

type sessionDoc struct {
	SessionJSON string    `firestore:"session_json"`
	ExpiresAt   time.Time `firestore:"expires_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func (s *Store) Put(ctx context.Context, session *domain.CallSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.CallID, err)
	}

	now := s.now()
	doc := sessionDoc{
		SessionJSON: string(payload),
		ExpiresAt:   now.Add(ttl),
		UpdatedAt:   now,
	}
	if _, err := s.sessionDoc(session.CallID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore Put %s: %w", session.CallID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.CallID) (*domain.CallSession, error) {
	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore Get %s: %w", id, err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore Get %s decode: %w", id, err)
	}
	if s.now().After(doc.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}

	var session domain.CallSession
	if err := json.Unmarshal([]byte(doc.SessionJSON), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, id domain.CallID) error {
	if _, err := s.sessionDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore Delete %s: %w", id, err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id domain.CallID, ttl time.Duration) error {
	_, err := s.sessionDoc(id).Update(ctx, []firestore.Update{
		{Path: "expires_at", Value: s.now().Add(ttl)},
		{Path: "updated_at", Value: s.now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("firestore Touch %s: %w", id, err)
	}
	return nil
}

func (s *Store) Active(ctx context.Context) ([]*domain.CallSession, error) {
	iter := s.sessionsCol().Documents(ctx)
	defer iter.Stop()

	var out []*domain.CallSession
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore Active: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}

		var session domain.CallSession
		if err := json.Unmarshal([]byte(doc.SessionJSON), &session); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", snap.Ref.ID, err)
		}
		out = append(out, &session)
	}
	return out, nil
}

// Ping issues a cheap read to verify connectivity.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.sessionsCol().Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
