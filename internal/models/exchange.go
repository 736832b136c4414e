package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyExchange converts one currency into another inside one account.
// The fee is always charged in FeeCurrency, which is set to the home
// currency when the exchange is applied.
type CurrencyExchange struct {
	EventMeta
	Account      string          `json:"account"`
	SellCurrency string          `json:"sell_currency"`
	SellAmount   decimal.Decimal `json:"sell_amount"`
	BuyCurrency  string          `json:"buy_currency"`
	BuyAmount    decimal.Decimal `json:"buy_amount"`
	Fee          decimal.Decimal `json:"fee"`
	FeeCurrency  string          `json:"fee_currency,omitempty"`
}

// Ref returns the storage address of the exchange.
func (x *CurrencyExchange) Ref() EventRef {
	return EventRef{Kind: KindExchange, ID: x.ID}
}

// Validate normalizes and checks the exchange's own fields.
func (x *CurrencyExchange) Validate() error {
	if err := x.EventMeta.validate(); err != nil {
		return err
	}
	x.Account = strings.TrimSpace(x.Account)
	if x.Account == "" {
		return invalid("account", "is required")
	}
	x.SellCurrency = NormalizeCurrency(x.SellCurrency)
	x.BuyCurrency = NormalizeCurrency(x.BuyCurrency)
	if err := validateCurrencyField("sell_currency", x.SellCurrency); err != nil {
		return err
	}
	if err := validateCurrencyField("buy_currency", x.BuyCurrency); err != nil {
		return err
	}
	if x.SellCurrency == x.BuyCurrency {
		return invalid("buy_currency", "must differ from sell_currency")
	}
	if !x.SellAmount.IsPositive() {
		return invalid("sell_amount", "must be positive")
	}
	if !x.BuyAmount.IsPositive() {
		return invalid("buy_amount", "must be positive")
	}
	if x.Fee.IsNegative() {
		return invalid("fee", "must not be negative")
	}
	return nil
}
