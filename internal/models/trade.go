package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TradeType is the side of a security trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// SecurityTrade is a buy or sell of a security inside one account.
// Currency and RealizedGain are filled in when the trade is applied and are
// stored with the record; client-supplied values are overwritten.
type SecurityTrade struct {
	EventMeta
	Type         TradeType       `json:"type"`
	Account      string          `json:"account"`
	Security     string          `json:"security"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Tax          decimal.Decimal `json:"tax"`
	Fee          decimal.Decimal `json:"fee"`
	RealizedGain decimal.Decimal `json:"realized_gain"`
	Currency     string          `json:"currency,omitempty"`
}

// Ref returns the storage address of the trade.
func (t *SecurityTrade) Ref() EventRef {
	return EventRef{Kind: KindTrade, ID: t.ID}
}

// Validate normalizes and checks the trade's own fields.
func (t *SecurityTrade) Validate() error {
	if err := t.EventMeta.validate(); err != nil {
		return err
	}
	if t.Type != TradeBuy && t.Type != TradeSell {
		return invalid("type", "must be buy or sell")
	}
	t.Account = strings.TrimSpace(t.Account)
	t.Security = strings.TrimSpace(t.Security)
	if t.Account == "" {
		return invalid("account", "is required")
	}
	if t.Security == "" {
		return invalid("security", "is required")
	}
	if !t.Quantity.IsPositive() {
		return invalid("quantity", "must be positive")
	}
	if t.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if t.Tax.IsNegative() {
		return invalid("tax", "must not be negative")
	}
	if t.Fee.IsNegative() {
		return invalid("fee", "must not be negative")
	}
	return nil
}

// Gross is price × quantity.
func (t *SecurityTrade) Gross() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// NetFlow is the trade's contribution to the net-worth trend in its trading
// currency. Buys convert cash into cost basis and contribute nothing.
func (t *SecurityTrade) NetFlow() decimal.Decimal {
	if t.Type != TradeSell {
		return decimal.Zero
	}
	return t.RealizedGain.Sub(t.Tax).Sub(t.Fee)
}
