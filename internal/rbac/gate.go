// Package rbac gates console actions by role. Denials resolve locally
// with a redirect to the dashboard; no network call is made for a view
// the identity is not allowed to reach.
package rbac

import (
	"sync"

	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// Decision is the outcome of a gate check.
type Decision int

const (
	// DecisionDeferred means no identity is present yet (session still
	// hydrating); the guarded content renders without judgment so the
	// analyst does not see a redirect flash during startup.
	DecisionDeferred Decision = iota
	DecisionGranted
	DecisionDenied
)

func (d Decision) String() string {
	switch d {
	case DecisionDeferred:
		return "deferred"
	case DecisionGranted:
		return "granted"
	case DecisionDenied:
		return "denied"
	}
	return "unknown"
}

// AnalystOrAdmin is the allow set for response actions (case creation,
// IP blocking, unblocking).
var AnalystOrAdmin = []session.Role{session.RoleAnalyst, session.RoleAdmin}

// Allowed is the pure membership test: identity's role against the
// allow set. An identity with an unset role counts as viewer.
func Allowed(allow []session.Role, id *session.Identity) bool {
	if id == nil {
		return false
	}
	role := id.Role
	if role == "" {
		role = session.RoleViewer
	}
	for _, r := range allow {
		if r == role {
			return true
		}
	}
	return false
}

// RedirectFunc receives the reason when a denial redirects. The CLI
// points the analyst at the dashboard; the dashboard server issues a
// 303 to /dashboard?forbidden=1.
type RedirectFunc func(reason string)

// Gate evaluates allow sets against the session store's identity and
// performs at most one redirect per identity mutation.
type Gate struct {
	store    *session.Store
	redirect RedirectFunc

	mu        sync.Mutex
	lastEpoch uint64
	fired     bool
}

// NewGate creates a gate over the given store. redirect may be nil.
func NewGate(store *session.Store, redirect RedirectFunc) *Gate {
	return &Gate{store: store, redirect: redirect}
}

// Check evaluates the allow set against the current identity. While
// the identity is absent the decision is deferred, not denied. A
// denial triggers the redirect callback exactly once per identity
// epoch; repeated checks against the same identity stay silent.
func (g *Gate) Check(allow ...session.Role) Decision {
	id := g.store.Identity()
	if id == nil {
		return DecisionDeferred
	}
	if Allowed(allow, id) {
		return DecisionGranted
	}

	epoch := g.store.Epoch()
	g.mu.Lock()
	shouldFire := !g.fired || g.lastEpoch != epoch
	g.lastEpoch = epoch
	g.fired = true
	g.mu.Unlock()

	if shouldFire && g.redirect != nil {
		g.redirect("forbidden")
	}
	return DecisionDenied
}

// Require is the command-path helper: it treats a deferred decision as
// a denial too, since a CLI invocation cannot wait for hydration.
func (g *Gate) Require(allow ...session.Role) bool {
	return g.Check(allow...) == DecisionGranted
}
