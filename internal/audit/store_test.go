package audit

import (
	"context"
	"testing"

	"github.com/SahilWadhwani/threathunt-console/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndRecent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entries := []Entry{
		{Actor: "ana@example.com", Action: ActionLogin, Detail: "login ok"},
		{Actor: "ana@example.com", Action: ActionCaseCreated, Subject: "case 12", Detail: "[Det 7] suspicious logins"},
		{Actor: "ana@example.com", Action: ActionIPBlocked, Subject: "1.2.3.4", Detail: "from detection 42", Outcome: OutcomeOK},
	}
	for _, e := range entries {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for _, e := range got {
		if e.ID == "" {
			t.Error("entry missing generated id")
		}
		if e.Outcome != OutcomeOK {
			t.Errorf("outcome = %q, want default ok", e.Outcome)
		}
	}
}

func TestByActor(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Actor: "a@x", Action: ActionLogin}); err != nil {
		t.Fatal(err)
	}
	if err := store.Log(ctx, Entry{Actor: "b@x", Action: ActionIPUnblocked, Subject: "5.6.7.8"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ByActor(ctx, "b@x", 10)
	if err != nil {
		t.Fatalf("ByActor: %v", err)
	}
	if len(got) != 1 || got[0].Action != ActionIPUnblocked {
		t.Errorf("got = %+v", got)
	}
}

func TestLogFailedOutcome(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Actor: "a@x", Action: ActionIPBlocked, Subject: "1.2.3.4", Outcome: OutcomeFailed}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	got, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Outcome != OutcomeFailed {
		t.Errorf("outcome = %q", got[0].Outcome)
	}
}
