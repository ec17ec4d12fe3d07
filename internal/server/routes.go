package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
	"github.com/SahilWadhwani/threathunt-console/internal/workflow"
)

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/ws", s.hub.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/summary", s.handleSummary)
		r.Get("/detections", s.handleListDetections)
		r.Get("/detections/{id}", s.handleGetDetection)
		r.Get("/cases", s.handleListCases)
		r.Get("/cases/{id}", s.handleGetCase)
		r.Get("/blocks", s.handleListBlocks)

		r.Post("/detections/{id}/open-case", s.handleOpenCase)
		r.Post("/detections/{id}/block", s.handleBlockIP)
		r.Post("/blocks/{id}/unblock", s.handleUnblock)
	})
}

// handleDashboard is the fallback view denials land on. The forbidden
// flag renders a notice instead of an error.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.URL.Query().Get("forbidden") == "1" {
		w.Write([]byte(`<!doctype html><title>huntctl</title><p class="forbidden">You do not have access to that view.</p>`))
		return
	}
	w.Write([]byte(`<!doctype html><title>huntctl</title><p>huntctl dashboard. API starts at /api/summary.</p>`))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.metrics.Summary(r.Context())
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleListDetections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := detections.ListFilter{
		Kind:     q.Get("kind"),
		Status:   detections.Status(q.Get("status")),
		Severity: detections.Severity(q.Get("severity")),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	rows, err := s.detections.List(r.Context(), f)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetDetection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	det, err := s.detections.Get(r.Context(), id)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*detections.Detail
		PrimaryIP    string `json:"primary_ip,omitempty"`
		BlockEnabled bool   `json:"block_enabled"`
	}{det, det.PrimaryIP(), s.orch.CanBlock(det)})
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	rows, err := s.cases.List(r.Context())
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.cases.Get(r.Context(), id)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	view, err := renderCase(c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleListBlocks is the block-protected view: a viewer lands on the
// dashboard with a forbidden flag and no blocklist fetch is issued.
func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	if s.gate.Check(rbac.AnalystOrAdmin...) == rbac.DecisionDenied {
		http.Redirect(w, r, "/dashboard?forbidden=1", http.StatusSeeOther)
		return
	}
	rows, err := s.respond.ListBlocks(r.Context())
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleOpenCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	det, err := s.detections.Get(r.Context(), id)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	created, err := s.orch.OpenCaseFromDetection(r.Context(), det)
	if err != nil {
		s.writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleBlockIP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	det, err := s.detections.Get(r.Context(), id)
	if err != nil {
		s.writeReadError(w, err)
		return
	}
	rule, err := s.orch.BlockIPFromDetection(r.Context(), det)
	if err != nil {
		if errors.Is(err, workflow.ErrNoSourceIP) {
			writeJSON(w, http.StatusConflict, map[string]string{"detail": "no source address resolvable"})
			return
		}
		s.writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.orch.UnblockRule(r.Context(), id); err != nil {
		s.writeActionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writeReadError maps read failures: suspended reads come back 401,
// not-found renders a not-found state, everything else is a gateway
// failure the view may retry.
func (s *Server) writeReadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, querycache.ErrNoCredential):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "not signed in"})
	case api.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	case api.IsUnauthorized(err):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": api.Detail(err, "unauthorized")})
	default:
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": api.Detail(err, "upstream read failed")})
	}
}

func (s *Server) writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, workflow.ErrForbidden) {
		http.Redirect(w, r, "/dashboard?forbidden=1", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"detail": api.Detail(err, "action failed")})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do.
		return
	}
}
