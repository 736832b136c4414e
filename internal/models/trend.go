package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendPoint is one month of the reconstructed net-worth series.
type TrendPoint struct {
	Month time.Time       `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// Trend is the net-worth series returned to callers.
type Trend struct {
	Currency    string          `json:"currency"`
	PeriodStart time.Time       `json:"period_start"`
	AsOfTotal   decimal.Decimal `json:"as_of_total"`
	Points      []TrendPoint    `json:"points"`
}

// NetWorth is the current total of all balances and position costs in the
// home currency, with the per-currency figures it was built from.
type NetWorth struct {
	Currency  string                     `json:"currency"`
	Total     decimal.Decimal            `json:"total"`
	Breakdown map[string]decimal.Decimal `json:"breakdown"`
	AsOf      time.Time                  `json:"as_of"`
}
