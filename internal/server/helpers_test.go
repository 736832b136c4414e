package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/purse/internal/models"
)

func TestDomainStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{models.NotFound("account", "x"), http.StatusNotFound, CodeNotFound},
		{&models.OversoldError{Requested: decimal.NewFromInt(2), Available: decimal.NewFromInt(1)}, http.StatusUnprocessableEntity, CodeConstraint},
		{&models.InvariantError{Op: "retract", Reason: "already deleted"}, http.StatusConflict, CodeInvariant},
		{&models.ValidationError{Field: "amount", Reason: "must be positive"}, http.StatusBadRequest, CodeInvalid},
		{fmt.Errorf("event 3: %w", &models.ValidationError{Field: "fee"}), http.StatusBadRequest, CodeInvalid},
		{errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		status, code := DomainStatus(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestWriteDomainError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, errors.New("password=hunter2"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestPathParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/events/trade/01ABC", nil)
	assert.Equal(t, "trade", PathParam(r, "/api/events/", ""))
	assert.Equal(t, "trade", PathParam(r, "/api/events/", "/"))
	assert.Equal(t, "", PathParam(r, "/api/accounts/", ""))
}

func TestParseDateParam(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := ParseDateParam("2025-03-01", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)))

	got, err = ParseDateParam("2025-03-01T12:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))

	got, err = ParseDateParam("", loc)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseDateParam("March", loc)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
}

func TestParseRateParams(t *testing.T) {
	q := url.Values{}
	q.Set("rate.usd", "0.91")
	q.Set("rate.GBP", "1.17")
	q.Set("from", "2025-01-01")

	rates, err := ParseRateParams(q)
	require.NoError(t, err)
	assert.Len(t, rates, 2)
	assert.Equal(t, "0.91", rates["USD"].String())
	assert.Equal(t, "1.17", rates["GBP"].String())

	q.Set("rate.JPY", "0")
	_, err = ParseRateParams(q)
	assert.ErrorIs(t, err, models.ErrInvalidEvent)
}
