// Package session holds the authenticated console session: the token
// pair returned by login and the identity fetched with it. It is the
// single source of truth for who is acting.
package session

import (
	"sync"
)

// Role is the closed set of console roles.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAnalyst Role = "analyst"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleAnalyst, RoleAdmin:
		return true
	}
	return false
}

// Credential is the opaque token pair issued by POST /auth/login.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Present reports whether an access token is held.
func (c Credential) Present() bool { return c.AccessToken != "" }

// Identity is the authenticated user as reported by GET /auth/me.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Store holds the session state behind a mutex. Accessors return
// snapshots: an operation that captured its credential before a
// Logout keeps using the captured value.
type Store struct {
	mu       sync.RWMutex
	cred     Credential
	identity *Identity
	epoch    uint64
}

// NewStore returns an unauthenticated store.
func NewStore() *Store { return &Store{} }

// SetCredential stores the token pair from a successful login.
func (s *Store) SetCredential(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{AccessToken: access, RefreshToken: refresh}
	s.epoch++
}

// SetIdentity records the hydrated identity. Passing nil clears it.
func (s *Store) SetIdentity(id *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == nil {
		s.identity = nil
	} else {
		cp := *id
		s.identity = &cp
	}
	s.epoch++
}

// Logout clears credential and identity unconditionally. It is the
// only destructive operation on the store.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.identity = nil
	s.epoch++
}

// Credential returns a snapshot of the current token pair.
func (s *Store) Credential() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.AccessToken
}

// Identity returns a copy of the current identity, or nil while the
// session is unauthenticated or still hydrating.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// Epoch increases on every mutation of the store. Dependents that must
// react at most once per state change (the capability gate's redirect)
// key their reaction on it.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}
