package session

import (
	"testing"
	"time"
)

// newTestManager returns a manager with a controllable clock and the
// production 30m/2m/5s timings.
func newTestManager(cb Callbacks) (*Manager, *time.Time) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	m := New(Config{}, cb)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestLogin_StartsActiveSession(t *testing.T) {
	m, _ := newTestManager(Callbacks{})
	defer m.Stop()

	id := m.Login()
	if id == "" {
		t.Fatalf("expected a session id")
	}
	if len(id) != 36 {
		t.Fatalf("expected UUID-format session id, got %q", id)
	}
	if m.State() != Active {
		t.Fatalf("expected Active, got %v", m.State())
	}
}

func TestExpiryBoundaries(t *testing.T) {
	cases := []struct {
		name string
		idle time.Duration
		want State
	}{
		{"active at 28m", 28 * time.Minute, Active},
		{"warning at 29m", 29 * time.Minute, WarningShown},
		{"expired just past 30m", 30*time.Minute + time.Second, Expired},
		{"expired at exactly 30m", 30 * time.Minute, Expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, now := newTestManager(Callbacks{})
			defer m.Stop()
			m.Login()
			*now = now.Add(tc.idle)
			m.check()
			if got := m.State(); got != tc.want {
				t.Fatalf("idle %v: expected %v, got %v", tc.idle, tc.want, got)
			}
		})
	}
}

func TestExpiry_ClearsSessionAndFiresCallback(t *testing.T) {
	expired := 0
	m, now := newTestManager(Callbacks{OnExpired: func() { expired++ }})
	defer m.Stop()

	m.Login()
	*now = now.Add(31 * time.Minute)
	m.check()
	m.check() // second tick must not fire again

	if expired != 1 {
		t.Fatalf("expected OnExpired once, fired %d times", expired)
	}
	if m.SessionID() != "" {
		t.Fatalf("expected session id cleared on expiry")
	}
}

func TestWarning_FiresOnceAndClearsOnConfirm(t *testing.T) {
	warnings := 0
	m, now := newTestManager(Callbacks{OnWarning: func() { warnings++ }})
	defer m.Stop()

	m.Login()
	*now = now.Add(29 * time.Minute)
	m.check()
	m.check()
	if warnings != 1 {
		t.Fatalf("expected one warning, got %d", warnings)
	}

	m.ConfirmStay()
	if m.State() != Active {
		t.Fatalf("expected Active after ConfirmStay, got %v", m.State())
	}

	*now = now.Add(29 * time.Minute)
	m.check()
	if warnings != 2 {
		t.Fatalf("expected warning to re-fire after re-idling, got %d", warnings)
	}
}

func TestRecordActivity_Throttled(t *testing.T) {
	m, now := newTestManager(Callbacks{})
	defer m.Stop()
	m.Login()

	*now = now.Add(3 * time.Second)
	m.RecordActivity() // inside the 5s throttle window: dropped

	*now = now.Add(27 * time.Minute)
	m.check()
	// 27m03s since the accepted reset puts the session close to warning but
	// still Active only if the throttled event did not reset the clock.
	if m.State() != Active {
		t.Fatalf("expected Active, got %v", m.State())
	}

	*now = now.Add(2 * time.Minute)
	m.check()
	if m.State() != WarningShown {
		t.Fatalf("expected WarningShown at 29m idle, got %v", m.State())
	}

	m.RecordActivity() // well past throttle: accepted, clears warning
	if m.State() != Active {
		t.Fatalf("expected Active after accepted activity, got %v", m.State())
	}
}

func TestRecordActivity_IgnoredWithoutSession(t *testing.T) {
	m, _ := newTestManager(Callbacks{})
	m.RecordActivity()
	if m.State() != NoSession {
		t.Fatalf("expected NoSession, got %v", m.State())
	}
}

func TestRouteChanged_EncodesKnownRoutesOnly(t *testing.T) {
	m, _ := newTestManager(Callbacks{})
	defer m.Stop()
	m.Login()

	token, ok := m.RouteChanged("/tasks")
	if !ok {
		t.Fatalf("expected token for mapped route")
	}
	if len(token) != 128 {
		t.Fatalf("expected 128-char token, got %d", len(token))
	}

	if _, ok := m.RouteChanged("/unmapped/route"); ok {
		t.Fatalf("expected no token for unmapped route")
	}
}

func TestResolveNavigation(t *testing.T) {
	m, _ := newTestManager(Callbacks{})
	defer m.Stop()
	m.Login()

	token, ok := m.RouteChanged("/helpdesk")
	if !ok {
		t.Fatalf("RouteChanged failed")
	}

	route, ok := m.ResolveNavigation(token)
	if !ok || route != "/helpdesk" {
		t.Fatalf("expected /helpdesk, got %q ok=%v", route, ok)
	}

	// Malformed token is terminal for the navigation attempt.
	if _, ok := m.ResolveNavigation("deadbeef"); ok {
		t.Fatalf("expected malformed token to be rejected")
	}

	// A token from a previous session must not resolve.
	m.Login()
	if _, ok := m.ResolveNavigation(token); ok {
		t.Fatalf("expected stale-session token to be rejected")
	}
}

func TestLogout_Idempotent(t *testing.T) {
	m, _ := newTestManager(Callbacks{})
	m.Login()
	m.Logout()
	m.Logout()
	if m.State() != NoSession || m.SessionID() != "" {
		t.Fatalf("expected cleared session after logout")
	}
}
