package server

import (
	"net/http"

	"github.com/bobmcallan/purse/internal/models"
)

// handleAccounts handles GET/POST /api/accounts.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodPost {
		var account models.Account
		if !DecodeJSON(w, r, &account) {
			return
		}
		created, err := s.app.BookkeepingService.CreateAccount(ctx, &account)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
		return
	}

	accounts, err := s.app.BookkeepingService.ListAccounts(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// handleSecurities handles GET/POST /api/securities.
func (s *Server) handleSecurities(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodPost {
		var security models.Security
		if !DecodeJSON(w, r, &security) {
			return
		}
		created, err := s.app.BookkeepingService.CreateSecurity(ctx, &security)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
		return
	}

	securities, err := s.app.BookkeepingService.ListSecurities(ctx)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if securities == nil {
		securities = []*models.Security{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"securities": securities,
		"count":      len(securities),
	})
}

// decodeEventBody reads the request body as an event of kind.
func decodeEventBody(w http.ResponseWriter, r *http.Request, kind models.EventKind) (models.Event, bool) {
	body, ok := ReadBody(w, r)
	if !ok {
		return nil, false
	}
	ev, err := models.DecodeEvent(kind, body)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeInvalid)
		return nil, false
	}
	return ev, true
}

// handleEventRecord handles POST /api/events/{kind}.
func (s *Server) handleEventRecord(w http.ResponseWriter, r *http.Request, kindParam string) {
	kind, err := models.ParseEventKind(kindParam)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	ev, ok := decodeEventBody(w, r, kind)
	if !ok {
		return
	}

	recorded, err := s.app.BookkeepingService.Record(r.Context(), ev)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, recorded)
}

// handleEventList handles GET /api/events/{kind}?from=YYYY-MM-DD.
func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request, kindParam string) {
	kind, err := models.ParseEventKind(kindParam)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	from, err := ParseDateParam(r.URL.Query().Get("from"), s.app.Config.Trend.GetLocation())
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	events, err := s.app.BookkeepingService.ListEvents(r.Context(), kind, from)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   kind,
		"events": events,
		"count":  len(events),
	})
}

// handleEventGet handles GET /api/events/{kind}/{id}.
func (s *Server) handleEventGet(w http.ResponseWriter, r *http.Request, kindParam, id string) {
	kind, err := models.ParseEventKind(kindParam)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	ev, err := s.app.BookkeepingService.GetEvent(r.Context(), models.EventRef{Kind: kind, ID: id})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ev)
}

// handleEventRevise handles PUT /api/events/{kind}/{id}. The body may omit
// the id; if present it must match the path.
func (s *Server) handleEventRevise(w http.ResponseWriter, r *http.Request, kindParam, id string) {
	kind, err := models.ParseEventKind(kindParam)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	ev, ok := decodeEventBody(w, r, kind)
	if !ok {
		return
	}
	meta := ev.Meta()
	if meta.ID != "" && meta.ID != id {
		WriteErrorWithCode(w, http.StatusBadRequest, "id in body does not match path", CodeInvalid)
		return
	}
	meta.ID = id

	revised, err := s.app.BookkeepingService.Revise(r.Context(), ev)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, revised)
}

// handleEventRemove handles DELETE /api/events/{kind}/{id}.
func (s *Server) handleEventRemove(w http.ResponseWriter, r *http.Request, kindParam, id string) {
	kind, err := models.ParseEventKind(kindParam)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if err := s.app.BookkeepingService.Remove(r.Context(), models.EventRef{Kind: kind, ID: id}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps err to a response, logging anything that is not
// one of the ledger's domain errors.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := DomainStatus(err); status == http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("correlation_id", CorrelationID(r.Context())).
			Msg("Request failed")
	}
	WriteDomainError(w, err)
}
