// Package session holds the authentication state the sync engine reads on
// every mutation. Token lifecycle (issue, refresh, expiry) is owned by the
// authentication provider; this package only stores what it is handed.
package session

import "sync"

// Session is the gate between guest-local and server-synced handling. It is
// safe for concurrent use and is consulted at mutation time, never cached, so
// a mutation issued right after login routes to the server path.
type Session struct {
	mu    sync.RWMutex
	token string
}

// New returns a guest session.
func New() *Session {
	return &Session{}
}

// SetToken installs a bearer token, marking the session authenticated. An
// empty token reverts the session to guest.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Clear reverts the session to guest.
func (s *Session) Clear() {
	s.SetToken("")
}

// Authenticated reports whether a bearer token is present.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current bearer token, empty for guests.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}
