package models

import (
	"strings"

	money "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// NormalizeCurrency upper-cases and trims an ISO 4217 code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency rejects codes go-money does not know.
func ValidateCurrency(code string) error {
	return validateCurrencyField("currency", code)
}

func validateCurrencyField(field, code string) error {
	if code == "" {
		return invalid(field, "is required")
	}
	if money.GetCurrency(code) == nil {
		return invalid(field, "unknown code "+code)
	}
	return nil
}

// FormatAmount renders amount with the currency's symbol, grouping and
// fraction digits. Sub-minor-unit precision is rounded away for display only.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.String() + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// Rates maps a currency code to the number of home-currency units one unit
// of it is worth.
type Rates map[string]decimal.Decimal

// RatesFromFloats builds Rates from a configuration table.
func RatesFromFloats(table map[string]float64) Rates {
	r := make(Rates, len(table))
	for code, v := range table {
		r[NormalizeCurrency(code)] = decimal.NewFromFloat(v)
	}
	return r
}

// Rate returns the rate for currency, or 1 when none is known.
func (r Rates) Rate(currency string) decimal.Decimal {
	if v, ok := r[currency]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// Convert converts amount in currency to the home currency.
func (r Rates) Convert(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Mul(r.Rate(currency))
}

// Merge returns a copy of r with the entries of over taking precedence.
func (r Rates) Merge(over Rates) Rates {
	out := make(Rates, len(r)+len(over))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
