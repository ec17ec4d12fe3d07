package session

import (
	"path/filepath"
	"testing"
)

func TestLifecycle(t *testing.T) {
	s := NewStore()

	if s.Credential().Present() {
		t.Fatal("new store should be unauthenticated")
	}
	if s.Identity() != nil {
		t.Fatal("new store should have no identity")
	}

	s.SetCredential("acc-1", "ref-1")
	if got := s.AccessToken(); got != "acc-1" {
		t.Errorf("AccessToken = %q", got)
	}

	s.SetIdentity(&Identity{ID: 7, Email: "ana@example.com", Role: RoleAnalyst})
	id := s.Identity()
	if id == nil || id.Role != RoleAnalyst {
		t.Fatalf("Identity = %+v", id)
	}

	s.Logout()
	if s.Credential().Present() {
		t.Error("logout should clear credential")
	}
	if s.Identity() != nil {
		t.Error("logout should clear identity")
	}
}

func TestSnapshotSurvivesLogout(t *testing.T) {
	s := NewStore()
	s.SetCredential("acc-1", "ref-1")

	// An in-flight operation captures its credential at issue time.
	captured := s.Credential()

	s.Logout()

	if captured.AccessToken != "acc-1" {
		t.Errorf("captured credential changed after logout: %q", captured.AccessToken)
	}
}

func TestIdentityCopied(t *testing.T) {
	s := NewStore()
	orig := &Identity{ID: 1, Email: "a@b", Role: RoleViewer}
	s.SetIdentity(orig)
	orig.Role = RoleAdmin

	if got := s.Identity().Role; got != RoleViewer {
		t.Errorf("stored identity mutated through caller pointer: %v", got)
	}

	got := s.Identity()
	got.Role = RoleAdmin
	if s.Identity().Role != RoleViewer {
		t.Error("stored identity mutated through returned pointer")
	}
}

func TestEpochAdvancesPerMutation(t *testing.T) {
	s := NewStore()
	e0 := s.Epoch()
	s.SetCredential("a", "r")
	e1 := s.Epoch()
	s.SetIdentity(&Identity{ID: 1, Email: "x", Role: RoleViewer})
	e2 := s.Epoch()
	s.Logout()
	e3 := s.Epoch()

	if !(e0 < e1 && e1 < e2 && e2 < e3) {
		t.Errorf("epochs not strictly increasing: %d %d %d %d", e0, e1, e2, e3)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewStore()
	s.SetCredential("acc-9", "ref-9")
	s.SetIdentity(&Identity{ID: 9, Email: "ops@example.com", Role: RoleAdmin})
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.AccessToken() != "acc-9" {
		t.Errorf("AccessToken = %q", loaded.AccessToken())
	}
	if id := loaded.Identity(); id == nil || id.Email != "ops@example.com" {
		t.Errorf("Identity = %+v", id)
	}

	if err := Clear(path); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	empty, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom after clear: %v", err)
	}
	if empty.Credential().Present() {
		t.Error("cleared session should load unauthenticated")
	}
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewStore()
	s.SetCredential("file-token", "file-refresh")
	if err := s.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HUNTCTL_ACCESS_TOKEN", "env-token")

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.AccessToken() != "env-token" {
		t.Errorf("AccessToken = %q, want env override", loaded.AccessToken())
	}
}
