// Package auth owns the single authenticated platform session: persisting its
// credential blob, establishing it through an ordered chain of strategies,
// and handing the cached client to every caller that needs network access.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/writetoearn/scorer/internal/twitter"
)

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateLive
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateLive:
		return "live"
	default:
		return "uninitialized"
	}
}

// attemptTimeout bounds each individual strategy attempt. On expiry the
// attempt is abandoned and the chain falls through to the next strategy.
const attemptTimeout = 30 * time.Second

// SessionManager owns the process-wide session. Concurrent callers that find
// the session down coalesce onto one in-flight authentication run instead of
// racing their own.
type SessionManager struct {
	account    string
	strategies []Strategy
	store      *CredentialStore
	log        *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	state  State
	client twitter.Client
}

// NewSessionManager creates the manager for one service account. There should
// be exactly one per process.
func NewSessionManager(account string, strategies []Strategy, store *CredentialStore, log *slog.Logger) *SessionManager {
	return &SessionManager{
		account:    account,
		strategies: strategies,
		store:      store,
		log:        log.With("component", "session"),
	}
}

// State reports the current lifecycle position.
func (m *SessionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Client returns the live authenticated handle, establishing it on first use.
// A second call while the session is live returns the same handle without
// touching the network.
func (m *SessionManager) Client(ctx context.Context) (twitter.Client, error) {
	m.mu.RLock()
	if m.state == StateLive {
		client := m.client
		m.mu.RUnlock()
		return client, nil
	}
	m.mu.RUnlock()

	v, err, _ := m.group.Do("authenticate", func() (any, error) {
		// A concurrent run may have finished while we queued.
		m.mu.RLock()
		if m.state == StateLive {
			client := m.client
			m.mu.RUnlock()
			return client, nil
		}
		m.mu.RUnlock()

		return m.authenticate(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(twitter.Client), nil
}

// authenticate walks the strategy chain. Each attempt gets a uniform hard
// timeout; failures fall through, they are never retried in place.
func (m *SessionManager) authenticate(ctx context.Context) (twitter.Client, error) {
	m.setState(StateAuthenticating)

	var lastErr error
	for _, strategy := range m.strategies {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		result, err := strategy.Attempt(attemptCtx)
		cancel()

		if err != nil {
			m.log.Warn("authentication strategy failed", "strategy", strategy.Name(), "error", err)
			lastErr = err
			continue
		}

		if result.Fresh {
			if records := result.Client.Cookies(); len(records) > 0 {
				// Losing the save costs a replay on next boot, not correctness.
				if err := m.store.Save(m.account, records); err != nil {
					m.log.Warn("failed to persist session cookies", "error", err)
				}
			}
		}

		m.mu.Lock()
		m.client = result.Client
		m.state = StateLive
		m.mu.Unlock()

		m.log.Info("session established", "strategy", strategy.Name(), "fresh", result.Fresh)
		return result.Client, nil
	}

	m.setState(StateUninitialized)
	return nil, fmt.Errorf("%w: all strategies exhausted: %v", ErrAuthenticationFailed, lastErr)
}

// Invalidate drops the cached handle after a detected liveness failure. The
// next Client call re-runs the strategy chain.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
	m.state = StateUninitialized
	m.log.Info("session invalidated")
}

// Probe checks the live session against the platform and invalidates it on a
// definitive rejection. Used by the scheduler to keep the session warm.
func (m *SessionManager) Probe(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	state := m.state
	m.mu.RUnlock()

	if state != StateLive {
		// Nothing to probe; the next request will authenticate.
		return nil
	}

	alive, err := client.IsLoggedIn(ctx)
	if err != nil {
		return fmt.Errorf("liveness probe failed: %w", err)
	}
	if !alive {
		m.Invalidate()
	}
	return nil
}

func (m *SessionManager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
