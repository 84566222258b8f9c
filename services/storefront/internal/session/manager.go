package session

import (
	"context"
	"sync"
	"time"

	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/services/storefront/internal/auth"
	"github.com/sakashimaa/storefront/services/storefront/internal/cart"
	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"go.uber.org/zap"
)

type Config struct {
	KeyPrefix     string
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Cart          cart.Options
}

type entry struct {
	core     *cart.Core
	signal   *auth.Signal
	lastSeen time.Time
}

// Manager hosts one cart core per browser session.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	deps   cart.Deps
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(deps cart.Deps, cfg Config, logger *zap.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}

	return &Manager{
		sessions: make(map[string]*entry),
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Acquire returns the core of sessionID, creating it on first use, and publishes
// authState on the session's signal when the identity changed. The core is built
// outside the manager lock, so a slow local store only delays its own session.
func (m *Manager) Acquire(ctx context.Context, sessionID string, authState domain.Session) *cart.Core {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if ok {
		e.lastSeen = m.now()
	}
	m.mu.Unlock()

	if !ok {
		created := m.newEntry(ctx, sessionID, authState)

		m.mu.Lock()
		e, ok = m.sessions[sessionID]
		if !ok {
			e = created
			m.sessions[sessionID] = e
		}
		e.lastSeen = m.now()
		n := len(m.sessions)
		m.mu.Unlock()

		if ok {
			// another request created it first
			created.core.Close()
		} else {
			m.deps.Metrics.SessionsActive(n)
			mylogger.Debug(ctx, m.logger, "Session created", zap.String("session_id", sessionID))
		}
	}

	if ok && !sameSession(e.signal.Current(), authState) {
		e.signal.Set(authState)
	}

	return e.core
}

func sameSession(a, b domain.Session) bool {
	return a.SameIdentity(b) && a.Token == b.Token
}

func (m *Manager) newEntry(ctx context.Context, sessionID string, authState domain.Session) *entry {
	signal := auth.NewSignal(authState)

	deps := m.deps
	deps.Signal = signal

	opts := m.cfg.Cart
	opts.SessionID = sessionID
	opts.SlotKey = m.cfg.KeyPrefix + sessionID

	return &entry{
		core:   cart.New(ctx, deps, opts),
		signal: signal,
	}
}

// LogoutUser moves every session of userID back to the anonymous cart.
func (m *Manager) LogoutUser(ctx context.Context, userID string) int {
	m.mu.Lock()
	var signals []*auth.Signal
	for _, e := range m.sessions {
		current := e.signal.Current()
		if current.IsAuthenticated && current.UserID == userID {
			signals = append(signals, e.signal)
		}
	}
	m.mu.Unlock()

	for _, signal := range signals {
		signal.Set(domain.Anonymous())
	}

	if len(signals) > 0 {
		mylogger.Info(ctx, m.logger, "User logged out of storefront sessions",
			zap.String("user_id", userID),
			zap.Int("sessions", len(signals)),
		)
	}

	return len(signals)
}

// Sweep closes sessions idle for longer than the configured TTL.
func (m *Manager) Sweep(ctx context.Context) int {
	deadline := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var expired []*entry
	for id, e := range m.sessions {
		if e.lastSeen.Before(deadline) {
			expired = append(expired, e)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	m.deps.Metrics.SessionsActive(n)

	for _, e := range expired {
		e.core.Close()
	}

	if len(expired) > 0 {
		mylogger.Debug(ctx, m.logger, "Evicted idle sessions", zap.Int("count", len(expired)))
	}

	return len(expired)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close detaches every core and waits for their outstanding remote writes.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for id, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.core.Close()
		if err := e.core.Wait(ctx); err != nil {
			mylogger.Warn(ctx, m.logger, "Remote cart writes still pending at shutdown", zap.Error(err))
			return
		}
	}
}
