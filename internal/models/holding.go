package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the signed amount of one currency held in one account.
type Balance struct {
	Account   string          `json:"account"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Position is the aggregate holding of one security in one account.
// Cost is expressed in the security's trading currency.
type Position struct {
	Account   string          `json:"account"`
	Security  string          `json:"security"`
	Quantity  decimal.Decimal `json:"quantity"`
	Cost      decimal.Decimal `json:"cost"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AverageCost returns cost/quantity, or zero for an empty position.
func (p Position) AverageCost() decimal.Decimal {
	if !p.Quantity.IsPositive() {
		return decimal.Zero
	}
	return p.Cost.Div(p.Quantity)
}

// PositionView is a Position enriched for reporting.
type PositionView struct {
	Position
	Currency string          `json:"currency"`
	AvgCost  decimal.Decimal `json:"average_cost"`
}
