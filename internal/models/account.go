package models

import (
	"strings"
	"time"
)

// AccountKind classifies where money is held.
type AccountKind string

const (
	AccountCash      AccountKind = "cash"
	AccountBank      AccountKind = "bank"
	AccountBrokerage AccountKind = "brokerage"
	AccountOther     AccountKind = "other"
)

var validAccountKinds = map[AccountKind]bool{
	AccountCash:      true,
	AccountBank:      true,
	AccountBrokerage: true,
	AccountOther:     true,
}

// Account is a place that holds per-currency balances and security positions.
type Account struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Kind      AccountKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// Validate checks the account fields and fills the default kind.
func (a *Account) Validate() error {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	if a.ID == "" {
		return invalid("id", "is required")
	}
	if len(a.ID) > 64 {
		return invalid("id", "exceeds 64 characters")
	}
	if a.Name == "" {
		a.Name = a.ID
	}
	if a.Kind == "" {
		a.Kind = AccountOther
	}
	if !validAccountKinds[a.Kind] {
		return invalid("kind", "must be cash, bank, brokerage or other")
	}
	return nil
}

// Security is a tradable instrument quoted in a single trading currency.
type Security struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the security fields.
func (s *Security) Validate() error {
	s.ID = strings.TrimSpace(s.ID)
	s.Symbol = strings.ToUpper(strings.TrimSpace(s.Symbol))
	s.Currency = NormalizeCurrency(s.Currency)
	if s.ID == "" {
		return invalid("id", "is required")
	}
	if s.Symbol == "" {
		s.Symbol = strings.ToUpper(s.ID)
	}
	return ValidateCurrency(s.Currency)
}
