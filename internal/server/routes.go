package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/purse/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Reference data
	mux.HandleFunc("/api/accounts", s.handleAccounts)
	mux.HandleFunc("/api/securities", s.handleSecurities)

	// Events
	mux.HandleFunc("/api/events/", s.routeEvents)

	// Aggregates
	mux.HandleFunc("/api/balances", s.handleBalances)
	mux.HandleFunc("/api/positions", s.handlePositions)
	mux.HandleFunc("/api/networth", s.handleNetWorth)
	mux.HandleFunc("/api/trend", s.handleTrend)
	mux.HandleFunc("/api/trend/chart.png", s.handleTrendChart)
}

// routeEvents dispatches /api/events/{kind} and /api/events/{kind}/{id}.
func (s *Server) routeEvents(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/events/"), "/")
	if path == "" {
		WriteError(w, http.StatusNotFound, "Event kind is required")
		return
	}

	parts := strings.SplitN(path, "/", 2)
	kind := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPost:
			s.handleEventRecord(w, r, kind)
		case http.MethodGet:
			s.handleEventList(w, r, kind)
		default:
			RequireMethod(w, r, http.MethodGet, http.MethodPost)
		}
		return
	}

	id := parts[1]
	if strings.Contains(id, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleEventGet(w, r, kind, id)
	case http.MethodPut:
		s.handleEventRevise(w, r, kind, id)
	case http.MethodDelete:
		s.handleEventRemove(w, r, kind, id)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"backend": s.app.Storage.Backend(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}
