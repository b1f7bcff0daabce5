// Package learning drives a learner through the not-yet-known flashcards of
// one category: flip, answer, shuffle and reset, persisting flag changes
// through the table store.
package learning

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/entity"
	"github.com/eslsoft/flashnet/internal/repository"
	"github.com/eslsoft/flashnet/internal/usecase/aggregate"
)

// DefaultStoreTimeout bounds every store call made by an engine.
const DefaultStoreTimeout = 15 * time.Second

// fetchOrder keeps the first unknown card stable across reloads.
const fetchOrder = "created_at asc, id asc"

// Store is the slice of the table store a session needs. Both the SQL
// repository and the REST client satisfy it.
type Store interface {
	List(ctx context.Context, query *repository.ListFlashcardQuery) ([]entity.Flashcard, int64, error)
	Update(ctx context.Context, userID, id string, patch entity.FlashcardPatch) (*entity.Flashcard, error)
	UpdateByCategory(ctx context.Context, userID, categoryID string, patch entity.FlashcardPatch) (int64, error)
}

// WritePolicy decides what happens to local state when a store write fails.
type WritePolicy int

const (
	// WriteOptimistic advances local state first and only reports failed
	// writes through View.Warning.
	WriteOptimistic WritePolicy = iota
	// WriteRollback restores the previous state and returns the error.
	WriteRollback
)

func (p WritePolicy) String() string {
	if p == WriteRollback {
		return "rollback"
	}
	return "optimistic"
}

// Option configures an Engine.
type Option func(*Engine)

func WithWritePolicy(policy WritePolicy) Option {
	return func(e *Engine) { e.policy = policy }
}

// WithStoreTimeout sets the per-call store deadline. Non-positive values keep
// the default.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRandom replaces the index source used for draws. intn must return a
// value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(e *Engine) {
		if intn != nil {
			e.intn = intn
		}
	}
}

func withWriteLocks(locks *keyedMutex) Option {
	return func(e *Engine) {
		if locks != nil {
			e.writes = locks
		}
	}
}

// Engine is the state machine of one learning session. It is safe for
// concurrent use; store writes for the same flashcard never overlap.
type Engine struct {
	store      Store
	userID     string
	categoryID string
	policy     WritePolicy
	timeout    time.Duration
	intn       func(n int) int
	logger     logrus.FieldLogger
	writes     *keyedMutex

	mu      sync.Mutex
	status  LoadStatus
	loadErr error
	// cards is replaced, never modified in place.
	cards   []entity.Flashcard
	current *entity.Flashcard
	face    Face
	warning string
}

func NewEngine(store Store, userID, categoryID string, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		userID:     userID,
		categoryID: categoryID,
		policy:     WriteOptimistic,
		timeout:    DefaultStoreTimeout,
		intn:       rand.IntN,
		logger:     logrus.StandardLogger(),
		writes:     newKeyedMutex(),
		status:     StatusLoading,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithFields(logrus.Fields{
		"user_id":     userID,
		"category_id": categoryID,
	})
	return e
}

// CategoryID returns the category this session walks through.
func (e *Engine) CategoryID() string { return e.categoryID }

// UserID returns the session owner.
func (e *Engine) UserID() string { return e.userID }

// Load fetches the category and seeds the first unknown card. A failed fetch
// leaves the session in StatusErrored; calling Load again retries.
func (e *Engine) Load(ctx context.Context) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reloadLocked(ctx); err != nil {
		return e.viewLocked(), err
	}
	return e.viewLocked(), nil
}

// View returns the current snapshot.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Turn flips the current card. The first flip of a visit marks the card
// reviewed.
func (e *Engine) Turn(ctx context.Context) (View, error) {
	e.mu.Lock()
	if err := e.requireCardLocked(); err != nil {
		e.mu.Unlock()
		return e.View(), err
	}
	e.warning = ""

	if e.face != FaceFrontFirstShow {
		if e.face == FaceBack {
			e.face = FaceFront
		} else {
			e.face = FaceBack
		}
		view := e.viewLocked()
		e.mu.Unlock()
		return view, nil
	}

	card := *e.current
	prev := e.saveLocked()
	e.cards = withFlags(e.cards, card.ID, entity.FlashcardPatch{IsReviewed: entity.Bool(true)})
	reviewed, _ := lo.Find(e.cards, func(c entity.Flashcard) bool { return c.ID == card.ID })
	e.current = &reviewed
	e.face = FaceBack

	return e.commit(ctx, "mark reviewed", card.ID, entity.FlashcardPatch{IsReviewed: entity.Bool(true)}, prev)
}

// Shuffle draws a new current card uniformly from the unknown pool.
func (e *Engine) Shuffle(_ context.Context) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireCardLocked(); err != nil {
		return e.viewLocked(), err
	}
	e.warning = ""
	e.drawLocked()
	return e.viewLocked(), nil
}

// MarkKnown records the current card as mastered and draws the next one from
// the remaining pool.
func (e *Engine) MarkKnown(ctx context.Context) (View, error) {
	return e.answer(ctx, true)
}

// MarkUnknown records the current card as not mastered. The card stays
// eligible for the next draw.
func (e *Engine) MarkUnknown(ctx context.Context) (View, error) {
	return e.answer(ctx, false)
}

func (e *Engine) answer(ctx context.Context, known bool) (View, error) {
	e.mu.Lock()
	if err := e.requireCardLocked(); err != nil {
		e.mu.Unlock()
		return e.View(), err
	}
	if e.face == FaceFrontFirstShow {
		e.mu.Unlock()
		return e.View(), entity.ErrCardNotFlipped
	}
	e.warning = ""

	card := *e.current
	patch := entity.FlashcardPatch{IsKnown: entity.Bool(known)}
	prev := e.saveLocked()
	e.cards = withFlags(e.cards, card.ID, patch)
	e.drawLocked()

	op := "mark unknown"
	if known {
		op = "mark known"
	}
	return e.commit(ctx, op, card.ID, patch, prev)
}

// ResetSet clears both flags on every flashcard of the category, refetches
// and reseeds from the first unknown card. It is the only transition allowed
// once the session is complete.
func (e *Engine) ResetSet(ctx context.Context) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLoaded {
		return e.viewLocked(), entity.ErrSessionNotLoaded
	}
	e.warning = ""

	err := e.call(ctx, "reset category", func(ctx context.Context) error {
		_, err := e.store.UpdateByCategory(ctx, e.userID, e.categoryID, entity.ResetPatch())
		return err
	})
	if err != nil {
		if e.policy == WriteRollback {
			return e.viewLocked(), err
		}
		e.warnLocked("reset category", "", err)
	}

	warning := e.warning
	if err := e.reloadLocked(ctx); err != nil {
		return e.viewLocked(), err
	}
	e.warning = warning
	return e.viewLocked(), nil
}

// commit persists a single-card patch after local state already moved. It is
// entered with e.mu held and releases it.
func (e *Engine) commit(ctx context.Context, op, cardID string, patch entity.FlashcardPatch, prev snapshot) (View, error) {
	write := func(ctx context.Context) error {
		unlock := e.writes.Lock(cardID)
		defer unlock()
		return e.call(ctx, op, func(ctx context.Context) error {
			_, err := e.store.Update(ctx, e.userID, cardID, patch)
			return err
		})
	}

	if e.policy == WriteRollback {
		defer e.mu.Unlock()
		if err := write(ctx); err != nil {
			e.restoreLocked(prev)
			e.logger.WithError(err).WithField("flashcard_id", cardID).Warnf("%s failed, state restored", op)
			return e.viewLocked(), err
		}
		return e.viewLocked(), nil
	}

	e.mu.Unlock()
	// The learner already moved on; a canceled request must not abort the write.
	err := write(context.WithoutCancel(ctx))

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.warnLocked(op, cardID, err)
	}
	return e.viewLocked(), nil
}

func (e *Engine) warnLocked(op, cardID string, err error) {
	entry := e.logger.WithError(err).WithField("kind", entity.KindName(entity.KindOf(err)))
	if cardID != "" {
		entry = entry.WithField("flashcard_id", cardID)
	}
	entry.Warnf("%s failed", op)
	e.warning = fmt.Sprintf("could not save change: %s", err)
}

// call runs fn under the store timeout.
func (e *Engine) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return entity.NewStoreError(op, entity.ErrNetwork, "store call timed out", err)
	}
	return err
}

func (e *Engine) reloadLocked(ctx context.Context) error {
	e.status = StatusLoading

	var cards []entity.Flashcard
	err := e.call(ctx, "list flashcards", func(ctx context.Context) error {
		items, _, err := e.store.List(ctx, &repository.ListFlashcardQuery{
			UserID:      e.userID,
			CategoryID:  e.categoryID,
			FilterOrder: repository.FilterOrder{OrderBy: fetchOrder},
		})
		cards = items
		return err
	})
	if err != nil {
		e.status = StatusErrored
		e.loadErr = err
		e.cards = nil
		e.current = nil
		e.face = FaceFrontFirstShow
		e.logger.WithError(err).Warn("load flashcards failed")
		return err
	}

	e.status = StatusLoaded
	e.loadErr = nil
	e.cards = append([]entity.Flashcard(nil), cards...)
	e.seedLocked()
	return nil
}

// seedLocked picks the first unknown card deterministically.
func (e *Engine) seedLocked() {
	e.face = FaceFrontFirstShow
	e.current = nil
	if pool := aggregate.UnknownPool(e.cards); len(pool) > 0 {
		first := pool[0]
		e.current = &first
	}
}

// drawLocked picks uniformly from the fresh unknown pool. An empty pool
// leaves no current card.
func (e *Engine) drawLocked() {
	e.face = FaceFrontFirstShow
	pool := aggregate.UnknownPool(e.cards)
	if len(pool) == 0 {
		e.current = nil
		return
	}
	idx := e.intn(len(pool))
	if idx < 0 || idx >= len(pool) {
		idx = 0
	}
	next := pool[idx]
	e.current = &next
}

func (e *Engine) requireCardLocked() error {
	if e.status != StatusLoaded {
		return entity.ErrSessionNotLoaded
	}
	if e.current == nil {
		return entity.ErrSessionComplete
	}
	return nil
}

type snapshot struct {
	cards   []entity.Flashcard
	current *entity.Flashcard
	face    Face
}

func (e *Engine) saveLocked() snapshot {
	return snapshot{cards: e.cards, current: e.current, face: e.face}
}

func (e *Engine) restoreLocked(s snapshot) {
	e.cards = s.cards
	e.current = s.current
	e.face = s.face
}

func (e *Engine) viewLocked() View {
	view := View{
		CategoryID: e.categoryID,
		Status:     e.status,
		Face:       e.face,
		Warning:    e.warning,
		Actions:    []Action{},
	}
	if e.status == StatusErrored && e.loadErr != nil {
		view.Error = e.loadErr.Error()
	}
	if e.status != StatusLoaded {
		return view
	}

	view.Counters = aggregate.SessionCounters(e.cards)
	view.Complete = view.Counters.Remaining == 0
	if e.current != nil {
		card := *e.current
		view.Card = &card
	}

	switch {
	case view.Complete:
		view.Actions = []Action{ActionResetSet}
	case e.face == FaceFrontFirstShow:
		view.Actions = []Action{ActionTurn, ActionShuffle, ActionResetSet}
	default:
		view.Actions = []Action{ActionTurn, ActionShuffle, ActionMarkKnown, ActionMarkUnknown, ActionResetSet}
	}
	return view
}

// withFlags returns a copy of cards with patch applied to the card with id.
func withFlags(cards []entity.Flashcard, id string, patch entity.FlashcardPatch) []entity.Flashcard {
	return lo.Map(cards, func(card entity.Flashcard, _ int) entity.Flashcard {
		if card.ID != id {
			return card
		}
		return patch.Apply(card)
	})
}
