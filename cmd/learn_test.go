package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/learning"
)

type memStore struct {
	mu       sync.Mutex
	cards    []entity.Flashcard
	failNext error
}

func (s *memStore) List(_ context.Context, q *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Flashcard
	for _, c := range s.cards {
		if c.CategoryID == q.CategoryID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) Update(_ context.Context, _, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	for i, c := range s.cards {
		if c.ID == id {
			s.cards[i] = patch.Apply(c)
			updated := s.cards[i]
			return &updated, nil
		}
	}
	return nil, entity.ErrFlashcardNotFound
}

func (s *memStore) UpdateByCategory(_ context.Context, _, categoryID string, patch entity.FlashcardPatch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i, c := range s.cards {
		if c.CategoryID == categoryID {
			s.cards[i] = patch.Apply(c)
			n++
		}
	}
	return n, nil
}

func (s *memStore) known() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cards {
		if c.IsKnown {
			n++
		}
	}
	return n
}

func localSession(store *memStore) *localDriver {
	logger, _ := test.NewNullLogger()
	return &localDriver{engine: learning.NewEngine(store, "", "es",
		learning.WithLogger(logger),
		learning.WithRandom(func(int) int { return 0 }),
	)}
}

func twoCards() *memStore {
	return &memStore{cards: []entity.Flashcard{
		{ID: "f1", CategoryID: "es", Front: "uno", Back: "one"},
		{ID: "f2", CategoryID: "es", Front: "dos", Back: "two"},
	}}
}

func TestLearnWalksThroughCategory(t *testing.T) {
	store := twoCards()
	var out bytes.Buffer
	in := strings.NewReader("k\nt\nk\nt\nk\n")

	if err := runLearn(context.Background(), in, &out, localSession(store)); err != nil {
		t.Fatalf("runLearn: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"front: uno",
		"[k] I know is not available now",
		"back:  one",
		"front: dos",
		"You have learned all flashcards in this category.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output is missing %q:\n%s", want, text)
		}
	}
	if store.known() != 2 {
		t.Fatalf("expected both cards to be saved as known, got %d", store.known())
	}
}

func TestLearnResetAfterCompletion(t *testing.T) {
	store := twoCards()
	for i := range store.cards {
		store.cards[i].IsKnown = true
		store.cards[i].IsReviewed = true
	}
	var out bytes.Buffer
	in := strings.NewReader("s\nr\nq\nt\n")

	if err := runLearn(context.Background(), in, &out, localSession(store)); err != nil {
		t.Fatalf("runLearn: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "[s]huffle is not available now") {
		t.Errorf("shuffle should be refused on a completed set:\n%s", text)
	}
	if !strings.Contains(text, "2 items | reviewed 0 | known 0 | remaining 2") {
		t.Errorf("reset should clear the counters:\n%s", text)
	}
	if store.known() != 0 {
		t.Fatalf("reset was not saved, %d cards still known", store.known())
	}
}

func TestLearnShowsWriteWarnings(t *testing.T) {
	store := twoCards()
	store.failNext = entity.ErrNetwork
	var out bytes.Buffer

	if err := runLearn(context.Background(), strings.NewReader("t\nu\n"), &out, localSession(store)); err != nil {
		t.Fatalf("runLearn: %v", err)
	}
	if !strings.Contains(out.String(), "! could not save change") {
		t.Fatalf("expected a warning line:\n%s", out.String())
	}
}

func TestLearnEmptyCategory(t *testing.T) {
	var out bytes.Buffer
	if err := runLearn(context.Background(), strings.NewReader("t\n"), &out, localSession(&memStore{})); err != nil {
		t.Fatalf("runLearn: %v", err)
	}
	if !strings.Contains(out.String(), "This category has no flashcards yet.") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

type failingDriver struct{ closed bool }

func (d *failingDriver) Start(context.Context) (learning.View, error) {
	return learning.View{}, entity.ErrCategoryNotFound
}

func (d *failingDriver) Do(context.Context, learning.Action) (learning.View, error) {
	return learning.View{}, nil
}

func (d *failingDriver) Close(context.Context) error {
	d.closed = true
	return nil
}

func TestLearnStartFailure(t *testing.T) {
	d := &failingDriver{}
	err := runLearn(context.Background(), strings.NewReader(""), &bytes.Buffer{}, d)
	if !errors.Is(err, entity.ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
	if d.closed {
		t.Fatalf("a session that never started should not be closed")
	}
}
