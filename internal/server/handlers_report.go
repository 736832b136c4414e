package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/bobmcallan/purse/internal/services/trend"
)

// handleBalances handles GET /api/balances.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	balances, err := s.app.BookkeepingService.Balances(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if balances == nil {
		balances = []models.Balance{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"balances": balances,
		"count":    len(balances),
	})
}

// handlePositions handles GET /api/positions.
func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	positions, err := s.app.BookkeepingService.Positions(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if positions == nil {
		positions = []models.PositionView{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"count":     len(positions),
	})
}

// handleNetWorth handles GET /api/networth?rate.USD=0.9.
func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	rates, err := ParseRateParams(r.URL.Query())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	nw, err := s.app.NetWorthService.NetWorth(r.Context(), rates)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, nw)
}

// trendFromRequest parses ?from= and rate overrides and reconstructs the
// trend. A missing from falls back to the configured default span.
func (s *Server) trendFromRequest(w http.ResponseWriter, r *http.Request) (*models.Trend, bool) {
	q := r.URL.Query()
	cfg := s.app.Config.Trend

	from, err := ParseDateParam(q.Get("from"), cfg.GetLocation())
	if err != nil {
		WriteDomainError(w, err)
		return nil, false
	}
	if from.IsZero() {
		from = time.Now().Add(-cfg.GetDefaultSpan())
	}
	rates, err := ParseRateParams(q)
	if err != nil {
		WriteDomainError(w, err)
		return nil, false
	}

	tr, err := s.app.TrendService.Trend(r.Context(), from, rates)
	if err != nil {
		s.writeServiceError(w, r, err)
		return nil, false
	}
	return tr, true
}

// handleTrend handles GET /api/trend?from=YYYY-MM-DD.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	tr, ok := s.trendFromRequest(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, tr)
}

// handleTrendChart handles GET /api/trend/chart.png?from=&width=&height=.
func (s *Server) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	tr, ok := s.trendFromRequest(w, r)
	if !ok {
		return
	}

	width, height := s.app.Config.Trend.ChartWidth, s.app.Config.Trend.ChartHeight
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 && v <= 4000 {
		width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v > 0 && v <= 4000 {
		height = v
	}

	png, err := trend.RenderChart(tr, width, height)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Trend chart render failed")
		WriteError(w, http.StatusInternalServerError, "Chart rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
