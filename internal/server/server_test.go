package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/cases"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
	"github.com/SahilWadhwani/threathunt-console/internal/metrics"
	"github.com/SahilWadhwani/threathunt-console/internal/notify"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
	"github.com/SahilWadhwani/threathunt-console/internal/respond"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
	"github.com/SahilWadhwani/threathunt-console/internal/workflow"
)

type upstream struct {
	blockLists int32
}

func newTestServer(t *testing.T, role session.Role) (*Server, *upstream) {
	t.Helper()
	up := &upstream{}

	mux := http.NewServeMux()
	mux.HandleFunc("/respond/blocks", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&up.blockLists, 1)
		w.Write([]byte(`[{"id":1,"ip":"1.2.3.4","active":true,"created_at":"2026-08-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("/detections/42", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":42,"kind":"brute_force","severity":"high","title":"Brute force",
			"status":"open","created_at":"2026-08-01T00:00:00Z",
			"evidence_events":[{"id":1,"event_module":"auth","event_action":"fail","src_ip":"1.2.3.4"},
			{"id":2,"event_module":"auth","event_action":"fail","src_ip":"1.2.3.4"},
			{"id":3,"event_module":"auth","event_action":"fail","src_ip":"5.6.7.8"}]}`))
	})
	mux.HandleFunc("/detections/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"not found"}`))
	})
	remote := httptest.NewServer(mux)
	t.Cleanup(remote.Close)

	client := api.New(remote.URL, 5*time.Second)
	cache := querycache.New()
	sess := session.NewStore()
	sess.SetCredential("tok", "ref")
	sess.SetIdentity(&session.Identity{ID: 1, Email: "u@x", Role: role})
	gate := rbac.NewGate(sess, nil)

	det := detections.NewService(client, cache, sess)
	cs := cases.NewService(client, cache, sess)
	rs := respond.NewService(client, cache, sess)
	ms := metrics.NewService(client, cache, sess)
	hub := notify.NewHub()
	orch := workflow.New(cs, rs, gate, sess, &notify.Recorder{}, nil, nil, 60)

	return New(Config{Port: 0}, sess, gate, det, cs, rs, ms, orch, hub), up
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, session.RoleViewer)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestViewerRedirectedFromBlocklistWithoutFetch(t *testing.T) {
	srv, up := newTestServer(t, session.RoleViewer)

	req := httptest.NewRequest(http.MethodGet, "/api/blocks", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard?forbidden=1" {
		t.Errorf("Location = %q", loc)
	}
	if n := atomic.LoadInt32(&up.blockLists); n != 0 {
		t.Errorf("blocklist fetches = %d, want 0 for denied viewer", n)
	}
}

func TestAnalystReadsBlocklist(t *testing.T) {
	srv, up := newTestServer(t, session.RoleAnalyst)

	req := httptest.NewRequest(http.MethodGet, "/api/blocks", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var rules []respond.BlockRule
	if err := json.Unmarshal(rec.Body.Bytes(), &rules); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(rules) != 1 || rules[0].IP != "1.2.3.4" {
		t.Errorf("rules = %+v", rules)
	}
	if n := atomic.LoadInt32(&up.blockLists); n != 1 {
		t.Errorf("fetches = %d", n)
	}

	// Second request is served from the shared cache.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blocks", nil))
	if n := atomic.LoadInt32(&up.blockLists); n != 1 {
		t.Errorf("fetches after cached read = %d, want 1", n)
	}
}

func TestDetectionDetailIncludesPrimaryIP(t *testing.T) {
	srv, _ := newTestServer(t, session.RoleAnalyst)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections/42", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		PrimaryIP    string `json:"primary_ip"`
		BlockEnabled bool   `json:"block_enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.PrimaryIP != "1.2.3.4" {
		t.Errorf("primary_ip = %q", body.PrimaryIP)
	}
	if !body.BlockEnabled {
		t.Error("block_enabled = false, want true")
	}
}

func TestUnknownDetectionRendersNotFound(t *testing.T) {
	srv, _ := newTestServer(t, session.RoleAnalyst)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/detections/404", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDashboardForbiddenNotice(t *testing.T) {
	srv, _ := newTestServer(t, session.RoleViewer)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?forbidden=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "do not have access") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRenderCaseMarkdown(t *testing.T) {
	c := &cases.Detail{
		ID:          5,
		Title:       "Investigate brute force",
		Description: "Seen **repeated** failures",
		Comments: []cases.Comment{
			{ID: 1, Author: "ana", Body: "blocked the address"},
		},
	}
	view, err := renderCase(c)
	if err != nil {
		t.Fatalf("renderCase: %v", err)
	}
	if !strings.Contains(view.DescriptionHTML, "<strong>repeated</strong>") {
		t.Errorf("DescriptionHTML = %q", view.DescriptionHTML)
	}
	if len(view.CommentViews) != 1 || !strings.Contains(view.CommentViews[0].BodyHTML, "blocked the address") {
		t.Errorf("CommentViews = %+v", view.CommentViews)
	}
}
