package rbac

import (
	"testing"

	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

func TestAllowedMembership(t *testing.T) {
	tests := []struct {
		name  string
		allow []session.Role
		id    *session.Identity
		want  bool
	}{
		{"nil identity", AnalystOrAdmin, nil, false},
		{"viewer denied", AnalystOrAdmin, &session.Identity{Role: session.RoleViewer}, false},
		{"analyst allowed", AnalystOrAdmin, &session.Identity{Role: session.RoleAnalyst}, true},
		{"admin allowed", AnalystOrAdmin, &session.Identity{Role: session.RoleAdmin}, true},
		{"empty role defaults to viewer", AnalystOrAdmin, &session.Identity{}, false},
		{"viewer in viewer set", []session.Role{session.RoleViewer}, &session.Identity{Role: session.RoleViewer}, true},
		{"empty allow set", nil, &session.Identity{Role: session.RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.allow, tt.id); got != tt.want {
				t.Errorf("Allowed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckDeferredWhileHydrating(t *testing.T) {
	store := session.NewStore()
	store.SetCredential("tok", "ref") // credential present, identity not yet fetched

	redirects := 0
	g := NewGate(store, func(string) { redirects++ })

	if d := g.Check(AnalystOrAdmin...); d != DecisionDeferred {
		t.Errorf("decision = %v, want deferred", d)
	}
	if redirects != 0 {
		t.Errorf("redirects = %d during hydration, want 0", redirects)
	}
}

func TestDenialRedirectsOncePerIdentity(t *testing.T) {
	store := session.NewStore()
	store.SetIdentity(&session.Identity{ID: 1, Email: "v@x", Role: session.RoleViewer})

	var reasons []string
	g := NewGate(store, func(r string) { reasons = append(reasons, r) })

	for i := 0; i < 3; i++ {
		if d := g.Check(AnalystOrAdmin...); d != DecisionDenied {
			t.Fatalf("decision = %v, want denied", d)
		}
	}
	if len(reasons) != 1 {
		t.Fatalf("redirects = %d, want exactly 1", len(reasons))
	}
	if reasons[0] != "forbidden" {
		t.Errorf("reason = %q", reasons[0])
	}

	// A new identity mutation re-arms the redirect.
	store.SetIdentity(&session.Identity{ID: 1, Email: "v@x", Role: session.RoleViewer})
	g.Check(AnalystOrAdmin...)
	if len(reasons) != 2 {
		t.Errorf("redirects after identity mutation = %d, want 2", len(reasons))
	}
}

func TestCheckIsDeterministicPerIdentity(t *testing.T) {
	store := session.NewStore()
	store.SetIdentity(&session.Identity{ID: 2, Email: "a@x", Role: session.RoleAnalyst})
	g := NewGate(store, nil)

	for i := 0; i < 5; i++ {
		if d := g.Check(AnalystOrAdmin...); d != DecisionGranted {
			t.Fatalf("check %d: decision = %v, want granted", i, d)
		}
	}
}

func TestRequire(t *testing.T) {
	store := session.NewStore()
	g := NewGate(store, nil)

	if g.Require(AnalystOrAdmin...) {
		t.Error("Require should fail while unauthenticated")
	}

	store.SetIdentity(&session.Identity{ID: 3, Email: "a@x", Role: session.RoleAdmin})
	if !g.Require(AnalystOrAdmin...) {
		t.Error("Require should pass for admin")
	}
}
