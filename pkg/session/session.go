// Package session tracks one authenticated client session: idle timeout,
// pre-expiry warning, throttled activity updates, and the opaque URL token
// kept in sync with navigation.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/proveloce/connect/pkg/urltoken"
)

// State is the lifecycle state of the managed session.
type State int

const (
	NoSession State = iota
	Active
	WarningShown
	Expired
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case Active:
		return "active"
	case WarningShown:
		return "warning_shown"
	case Expired:
		return "expired"
	}
	return "unknown"
}

const (
	defaultTimeout          = 30 * time.Minute
	defaultWarningThreshold = 2 * time.Minute
	defaultActivityThrottle = 5 * time.Second
	defaultCheckInterval    = 10 * time.Second
)

// Config controls session timing. Zero values fall back to the defaults
// above.
type Config struct {
	// Timeout is the idle duration after which the session expires.
	Timeout time.Duration
	// WarningThreshold is how long before expiry the warning fires.
	WarningThreshold time.Duration
	// ActivityThrottle is the minimum gap between accepted activity resets.
	ActivityThrottle time.Duration
	// CheckInterval is the cadence of the periodic expiry check.
	CheckInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.WarningThreshold <= 0 {
		c.WarningThreshold = defaultWarningThreshold
	}
	if c.ActivityThrottle <= 0 {
		c.ActivityThrottle = defaultActivityThrottle
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	return c
}

// Callbacks are invoked by the manager on state changes. All are optional.
// They are called with the manager's lock released.
type Callbacks struct {
	// OnWarning fires once when the session enters WarningShown.
	OnWarning func()
	// OnExpired fires once when the idle timeout elapses. The manager has
	// already cleared the session when this runs.
	OnExpired func()
}

// Manager drives the session state machine. All methods are safe for
// concurrent use.
type Manager struct {
	cfg Config
	cb  Callbacks
	now func() time.Time

	mu           sync.Mutex
	state        State
	sessionID    string
	lastActivity time.Time

	cancel context.CancelFunc
}

// New returns a Manager in the NoSession state.
func New(cfg Config, cb Callbacks) *Manager {
	return &Manager{
		cfg:   cfg.withDefaults(),
		cb:    cb,
		now:   time.Now,
		state: NoSession,
	}
}

// Login creates a fresh session id, resets the activity clock, and starts the
// periodic expiry check. It returns the new session id. Calling Login on a
// live session replaces it.
func (m *Manager) Login() string {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.sessionID = uuid.NewString()
	m.state = Active
	m.lastActivity = m.now()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	go m.watch(ctx)
	return m.SessionID()
}

// Logout destroys the session and cancels the periodic check. Idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.sessionID = ""
	m.state = NoSession
	m.mu.Unlock()
}

// Stop is an alias for Logout, provided so callers tearing the manager down
// read naturally.
func (m *Manager) Stop() { m.Logout() }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the live session id, or "" when no session exists.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// RecordActivity resets the idle clock. Events arriving within the throttle
// window of the previous accepted event are dropped. Activity on an expired
// or absent session is ignored.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active && m.state != WarningShown {
		return
	}
	now := m.now()
	if now.Sub(m.lastActivity) < m.cfg.ActivityThrottle {
		return
	}
	m.lastActivity = now
	m.state = Active
}

// ConfirmStay handles the "stay logged in" confirmation on the warning
// dialog: the idle clock resets unconditionally and the warning clears.
func (m *Manager) ConfirmStay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Active && m.state != WarningShown {
		return
	}
	m.lastActivity = m.now()
	m.state = Active
}

// RouteChanged re-encodes the visible URL token for a navigation to route.
// It returns ok=false, leaving the URL untouched, when there is no live
// session, the route is not in the route table, or the encoded token fails
// shape validation.
func (m *Manager) RouteChanged(route string) (token string, ok bool) {
	m.mu.Lock()
	id := m.sessionID
	state := m.state
	m.mu.Unlock()

	if state != Active && state != WarningShown {
		return "", false
	}
	if !urltoken.KnownRoute(route) {
		return "", false
	}
	token, err := urltoken.Encode(id, route)
	if err != nil || !urltoken.IsValid(token) {
		return "", false
	}
	return token, true
}

// ResolveNavigation decodes an address-bar token and checks it against the
// live session. ok=false means the navigation must redirect to the login
// route; a bad token is terminal for that navigation attempt.
func (m *Manager) ResolveNavigation(token string) (route string, ok bool) {
	sessionID, route, ok := urltoken.Decode(token)
	if !ok {
		return "", false
	}
	if sessionID != m.SessionID() || sessionID == "" {
		return "", false
	}
	return route, true
}

// watch runs the periodic expiry check until the session is torn down.
func (m *Manager) watch(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

// check applies the idle-timeout rules once. Split out from watch so tests
// can drive the state machine with a fake clock.
func (m *Manager) check() {
	m.mu.Lock()
	if m.state != Active && m.state != WarningShown {
		m.mu.Unlock()
		return
	}

	elapsed := m.now().Sub(m.lastActivity)
	switch {
	case elapsed >= m.cfg.Timeout:
		m.state = Expired
		m.sessionID = ""
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		cb := m.cb.OnExpired
		m.mu.Unlock()
		// The OnExpired callback performs the forced logout (redirect to the
		// login route and Logout(), which lands the machine in NoSession).
		if cb != nil {
			cb()
		}
	case elapsed > m.cfg.Timeout-m.cfg.WarningThreshold:
		fire := m.state == Active
		m.state = WarningShown
		cb := m.cb.OnWarning
		m.mu.Unlock()
		if fire && cb != nil {
			cb()
		}
	default:
		m.mu.Unlock()
	}
}
