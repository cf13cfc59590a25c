package session

import "time"

// Option configures a Manager.
type Option func(*Manager)

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(m *Manager) { m.observer = obs }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides the uuid generator used for sessions and
// proposals.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithIdleTimeout makes Reap and Run log out sessions that have not been
// looked up for d. Zero disables expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) { m.idleTimeout = d }
}
