package learning

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/eslsoft/flashnet/internal/entity"
)

func newTestManager(store *fakeStore, ttl time.Duration) (*Manager, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(store, ttl, quietLogger(), WithRandom(lastIndex))
	m.clock = func() time.Time { return now }
	seq := 0
	m.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("session-%d", seq), nil
	}
	return m, &now
}

var owner = entity.Principal{UserID: testUser, Email: "learner@example.com"}

func TestManagerSessionLifecycle(t *testing.T) {
	store := newFakeStore(spanishCards(2)...)
	m, _ := newTestManager(store, time.Minute)
	ctx := context.Background()

	id, view, err := m.Start(ctx, owner, testCategory)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id != "session-1" || view.Card == nil || view.Card.ID != "card-1" {
		t.Fatalf("unexpected start result %q %+v", id, view)
	}

	if view, err = m.Turn(ctx, owner, id); err != nil || view.Face != FaceBack {
		t.Fatalf("Turn: %+v %v", view, err)
	}
	if view, err = m.MarkKnown(ctx, owner, id); err != nil || view.Counters.Known != 1 {
		t.Fatalf("MarkKnown: %+v %v", view, err)
	}
	if view, err = m.Shuffle(ctx, owner, id); err != nil || view.Card.ID != "card-2" {
		t.Fatalf("Shuffle: %+v %v", view, err)
	}
	if _, err = m.Turn(ctx, owner, id); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if view, err = m.MarkUnknown(ctx, owner, id); err != nil || view.Counters.Remaining != 1 {
		t.Fatalf("MarkUnknown: %+v %v", view, err)
	}
	if view, err = m.ResetSet(ctx, owner, id); err != nil || view.Counters.Remaining != 2 {
		t.Fatalf("ResetSet: %+v %v", view, err)
	}

	got, err := m.Get(ctx, owner, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Card.ID != "card-1" {
		t.Fatalf("expected reseeded card-1, got %+v", got.Card)
	}

	if err := m.End(ctx, owner, id); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := m.Get(ctx, owner, id); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after End, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", m.Len())
	}
}

func TestManagerScopesSessionsToOwner(t *testing.T) {
	store := newFakeStore(spanishCards(1)...)
	m, _ := newTestManager(store, time.Minute)
	ctx := context.Background()

	id, _, err := m.Start(ctx, owner, testCategory)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	intruder := entity.Principal{UserID: "user-2"}
	if _, err := m.Get(ctx, intruder, id); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for another user, got %v", err)
	}
	if err := m.End(ctx, intruder, id); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on End, got %v", err)
	}
	if _, err := m.Get(ctx, entity.Principal{}, id); !errors.Is(err, entity.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatal("foreign calls must not drop the session")
	}
}

func TestManagerExpiresIdleSessions(t *testing.T) {
	store := newFakeStore(spanishCards(1)...)
	m, now := newTestManager(store, time.Minute)
	ctx := context.Background()

	first, _, err := m.Start(ctx, owner, testCategory)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, _, err := m.Start(ctx, owner, testCategory)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	*now = now.Add(45 * time.Second)
	if _, err := m.Get(ctx, owner, second); err != nil {
		t.Fatalf("Get within TTL: %v", err)
	}

	*now = now.Add(30 * time.Second)
	if _, err := m.Get(ctx, owner, first); !errors.Is(err, entity.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if n := m.Sweep(); n != 0 {
		t.Fatalf("expected second session kept alive by access, swept %d", n)
	}

	*now = now.Add(2 * time.Minute)
	if n := m.Sweep(); n != 1 {
		t.Fatalf("expected one swept session, got %d", n)
	}
	if m.Len() != 0 {
		t.Fatalf("expected no sessions left, got %d", m.Len())
	}
}

func TestManagerStartFailures(t *testing.T) {
	store := newFakeStore()
	store.listErr = entity.NewStoreError("list flashcards", entity.ErrNetwork, "down", nil)
	m, _ := newTestManager(store, time.Minute)
	ctx := context.Background()

	if _, view, err := m.Start(ctx, owner, testCategory); !errors.Is(err, entity.ErrNetwork) || view.Status != StatusErrored {
		t.Fatalf("expected errored start, got %+v %v", view, err)
	}
	if m.Len() != 0 {
		t.Fatal("failed start must not register a session")
	}
	if _, _, err := m.Start(ctx, owner, "  "); !errors.Is(err, entity.ErrInvalidCategoryID) {
		t.Fatalf("expected ErrInvalidCategoryID, got %v", err)
	}
	if _, _, err := m.Start(ctx, entity.Principal{}, testCategory); !errors.Is(err, entity.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
