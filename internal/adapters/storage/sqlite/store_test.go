package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSession(callID domain.CallID) *domain.CallSession {
	s := &domain.CallSession{
		ID:        "s-1",
		CallID:    callID,
		Caller:    "+15551234567",
		Status:    domain.StatusActive,
		StartedAt: time.Now().UTC(),
	}
	s.AppendTurn(domain.RoleCaller, "what are the pool hours", s.StartedAt)
	s.AppendTurn(domain.RoleAssistant, "the pools are open until eight", s.StartedAt.Add(time.Second))
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("CA1"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "CA1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CallID != "CA1" || got.Status != domain.StatusActive {
		t.Fatalf("got %+v", got)
	}
	if len(got.History) != 2 || got.History[0].Content != "what are the pool hours" {
		t.Fatalf("history did not survive the round trip: %+v", got.History)
	}
}

func TestPutUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := testSession("CA2")
	if err := store.Put(ctx, session, time.Minute); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}

	session.AppendTurn(domain.RoleCaller, "one more thing", time.Now().UTC())
	if err := store.Put(ctx, session, time.Minute); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	got, err := store.Get(ctx, "CA2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.History) != 3 {
		t.Fatalf("history length = %d, want the rewritten record", len(got.History))
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Get(context.Background(), "CA-missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetHidesExpiredRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// A non-positive TTL writes an already-expired row.
	if err := store.Put(ctx, testSession("CA3"), -time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := store.Get(ctx, "CA3"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound for expired row", err)
	}
}

func TestActiveListsExpiredRows(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("CA4"), -time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	sessions, err := store.Active(ctx)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("Active returned %d rows, want 1 (expired rows stay listable)", len(sessions))
	}
}

func TestTouch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("CA5"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Touch(ctx, "CA5", time.Hour); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if err := store.Touch(ctx, "CA-missing", time.Hour); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Put(ctx, testSession("CA6"), time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(ctx, "CA6"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "CA6"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound after delete", err)
	}

	// Deleting an absent row is not an error.
	if err := store.Delete(ctx, "CA6"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
}

func TestSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := store.Put(ctx, testSession("CA7"), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "CA7")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.CallID != "CA7" {
		t.Fatalf("got %+v", got)
	}
}
