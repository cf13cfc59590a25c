package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/google/uuid"
)

// Manager owns the live sessions of the process.
type Manager struct {
	storage  Storage
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager over storage.
func NewManager(storage Storage, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		storage:  storage,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.observer == nil {
		m.observer = Observers(nil)
	}
	return m
}

// Login validates the form, loads the ward and the identity's vote set, and
// starts a session. With a push-based store the session also subscribes to
// snapshots until Logout.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	wardID := strings.TrimSpace(req.Ward)
	if name == "" || phone == "" || wardID == "" {
		return nil, fmt.Errorf("%w: name, phone and ward are required", ErrValidation)
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	info := Info{
		ID:        m.newID(),
		Name:      name,
		Phone:     phone,
		Ward:      wardID,
		Role:      role,
		Identity:  ledger.NewIdentity(name, wardID),
		StartedAt: m.now(),
	}

	proposals, err := m.storage.LoadProposals(ctx, wardID)
	if err != nil {
		return nil, fmt.Errorf("loading ward %s: %w", wardID, asSync(err))
	}
	votes, err := m.storage.LoadVotes(ctx, info.Identity)
	if err != nil {
		return nil, fmt.Errorf("loading votes: %w", asSync(err))
	}

	sess := &Session{
		info:       info,
		storage:    m.storage,
		observer:   m.observer,
		logger:     m.logger.With("session", info.ID, "ward", wardID),
		now:        m.now,
		newID:      m.newID,
		proposals:  proposal.Clone(proposals),
		votes:      votes.Clone(),
		allocation: budget.DefaultAllocation(),
	}
	sess.touch(info.StartedAt)

	if watcher, ok := m.storage.(Watcher); ok {
		watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		updates, err := watcher.Watch(watchCtx, wardID, info.Identity)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("watching ward %s: %w", wardID, asSync(err))
		}
		sess.cancel = cancel
		sess.done = make(chan struct{})
		go sess.consume(watchCtx, updates)
	}

	m.mu.Lock()
	m.sessions[info.ID] = sess
	m.mu.Unlock()

	m.logger.Info("session started", "session", info.ID, "ward", wardID, "role", role)
	m.observer.Observe(ctx, Event{Type: EventSessionStarted, Session: info})
	return sess, nil
}

// Get returns a live session and marks it as used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotLoggedIn
	}
	sess.touch(m.now())
	return sess, nil
}

// Reap logs out every session idle for longer than the idle timeout and
// returns how many it ended.
func (m *Manager) Reap(ctx context.Context) int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.RLock()
	var idle []string
	for id, sess := range m.sessions {
		if sess.lastSeen().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range idle {
		if err := m.Logout(ctx, id); err != nil {
			continue
		}
		m.logger.Info("session expired", "session", id, "idle_timeout", m.idleTimeout)
		n++
	}
	return n
}

// Run reaps idle sessions until ctx is cancelled. It returns at once when
// no idle timeout is set.
func (m *Manager) Run(ctx context.Context) {
	if m.idleTimeout <= 0 {
		return
	}
	interval := max(m.idleTimeout/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(ctx)
		}
	}
}

// Logout ends a session, stops its subscriptions and drops its state.
func (m *Manager) Logout(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotLoggedIn
	}

	sess.close()
	m.logger.Info("session closed", "session", id)
	m.observer.Observe(ctx, Event{Type: EventSessionClosed, Session: sess.Info()})
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close logs out every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Logout(ctx, id); err != nil && !errors.Is(err, ErrNotLoggedIn) {
			m.logger.Warn("closing session failed", "session", id, "error", err)
		}
	}
}

func asSync(err error) error {
	if errors.Is(err, ErrSync) || errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrSync, err)
}
