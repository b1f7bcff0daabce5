package learning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/flashnet/internal/entity"
)

// DefaultSessionTTL is how long an idle hosted session survives.
const DefaultSessionTTL = 30 * time.Minute

// Manager hosts learning sessions server-side for thin clients. Each session
// belongs to the user that started it; other users cannot see it.
type Manager struct {
	store  Store
	ttl    time.Duration
	opts   []Option
	logger logrus.FieldLogger
	writes *keyedMutex

	clock func() time.Time
	newID func() (string, error)

	mu       sync.Mutex
	sessions map[string]*hostedSession
}

type hostedSession struct {
	engine   *Engine
	owner    string
	lastSeen time.Time
}

// NewManager builds a Manager. Engine options apply to every hosted session;
// all sessions share one per-flashcard write lock.
func NewManager(store Store, ttl time.Duration, logger logrus.FieldLogger, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		opts:     opts,
		logger:   logger,
		writes:   newKeyedMutex(),
		clock:    time.Now,
		newID:    func() (string, error) { return gonanoid.New() },
		sessions: make(map[string]*hostedSession),
	}
}

// Start loads categoryID for the principal and registers a session. A failed
// load registers nothing.
func (m *Manager) Start(ctx context.Context, principal entity.Principal, categoryID string) (string, View, error) {
	if err := principal.Validate(); err != nil {
		return "", View{}, err
	}
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return "", View{}, entity.ErrInvalidCategoryID
	}

	id, err := m.newID()
	if err != nil {
		return "", View{}, fmt.Errorf("generate session id: %w", err)
	}

	opts := make([]Option, 0, len(m.opts)+2)
	opts = append(opts, WithLogger(m.logger.WithField("session_id", id)))
	opts = append(opts, m.opts...)
	opts = append(opts, withWriteLocks(m.writes))
	engine := NewEngine(m.store, principal.UserID, categoryID, opts...)

	view, err := engine.Load(ctx)
	if err != nil {
		return "", view, err
	}

	m.mu.Lock()
	m.sessions[id] = &hostedSession{engine: engine, owner: principal.UserID, lastSeen: m.clock()}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id":  id,
		"user_id":     principal.UserID,
		"category_id": categoryID,
	}).Info("learning session started")
	return id, view, nil
}

func (m *Manager) Get(_ context.Context, principal entity.Principal, id string) (View, error) {
	engine, err := m.lookup(principal, id)
	if err != nil {
		return View{}, err
	}
	return engine.View(), nil
}

func (m *Manager) Turn(ctx context.Context, principal entity.Principal, id string) (View, error) {
	return m.do(ctx, principal, id, (*Engine).Turn)
}

func (m *Manager) Shuffle(ctx context.Context, principal entity.Principal, id string) (View, error) {
	return m.do(ctx, principal, id, (*Engine).Shuffle)
}

func (m *Manager) MarkKnown(ctx context.Context, principal entity.Principal, id string) (View, error) {
	return m.do(ctx, principal, id, (*Engine).MarkKnown)
}

func (m *Manager) MarkUnknown(ctx context.Context, principal entity.Principal, id string) (View, error) {
	return m.do(ctx, principal, id, (*Engine).MarkUnknown)
}

func (m *Manager) ResetSet(ctx context.Context, principal entity.Principal, id string) (View, error) {
	return m.do(ctx, principal, id, (*Engine).ResetSet)
}

// End discards the session. Writes already in flight still complete but
// nobody observes their result.
func (m *Manager) End(_ context.Context, principal entity.Principal, id string) error {
	if _, err := m.lookup(principal, id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.logger.WithField("session_id", id).Info("learning session ended")
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many it
// removed.
func (m *Manager) Sweep() int {
	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.WithField("expired", n).Debug("swept idle learning sessions")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) do(ctx context.Context, principal entity.Principal, id string, fn func(*Engine, context.Context) (View, error)) (View, error) {
	engine, err := m.lookup(principal, id)
	if err != nil {
		return View{}, err
	}
	return fn(engine, ctx)
}

// lookup finds an owned live session and refreshes its idle timer. Expired
// sessions are removed on access.
func (m *Manager) lookup(principal entity.Principal, id string) (*Engine, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}

	now := m.clock()
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.owner != principal.UserID {
		return nil, entity.ErrSessionNotFound
	}
	if now.Sub(s.lastSeen) > m.ttl {
		delete(m.sessions, id)
		return nil, entity.ErrSessionNotFound
	}
	s.lastSeen = now
	return s.engine, nil
}
