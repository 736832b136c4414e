package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/purse/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned alongside domain failures.
const (
	CodeNotFound   = "not_found"
	CodeConstraint = "constraint_violation"
	CodeInvariant  = "invariant_violation"
	CodeInvalid    = "invalid_request"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// DomainStatus maps a ledger error to its HTTP status and error code.
// Anything outside the four error classes is a 500.
func DomainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrReferenceNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrConstraintViolation):
		return http.StatusUnprocessableEntity, CodeConstraint
	case errors.Is(err, models.ErrInvariantViolation):
		return http.StatusConflict, CodeInvariant
	case errors.Is(err, models.ErrInvalidEvent):
		return http.StatusBadRequest, CodeInvalid
	}
	return http.StatusInternalServerError, ""
}

// WriteDomainError writes err with the status its error class maps to.
// Internal errors are not echoed to the client.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code := DomainStatus(err)
	if status == http.StatusInternalServerError {
		WriteError(w, status, "Internal server error")
		return
	}
	WriteErrorWithCode(w, status, err.Error(), code)
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// ReadBody returns the raw request body, capped at 1MB.
// Returns false and writes a 400 error if the body is missing or too large.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return nil, false
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return nil, false
	}
	return data, true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/events/{kind}/{id}, calling PathParam(r, "/api/events/", "/")
// extracts the {kind} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix, return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// ParseDateParam parses a YYYY-MM-DD or RFC3339 query value in loc.
// An empty value yields the zero time.
func ParseDateParam(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}

// ParseRateParams collects rate.XXX=value query overrides, e.g.
// ?rate.USD=0.91&rate.GBP=1.17.
func ParseRateParams(q url.Values) (models.Rates, error) {
	rates := models.Rates{}
	for key, values := range q {
		if !strings.HasPrefix(key, "rate.") || len(values) == 0 {
			continue
		}
		code := models.NormalizeCurrency(strings.TrimPrefix(key, "rate."))
		if err := models.ValidateCurrency(code); err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(values[0])
		if err != nil || !rate.IsPositive() {
			return nil, &models.ValidationError{Field: key, Reason: "must be a positive number"}
		}
		rates[code] = rate
	}
	return rates, nil
}
