package surrealdb

import (
	"fmt"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Table names.
const (
	tableAccount  = "account"
	tableSecurity = "security"
	tableBalance  = "balance"
	tablePosition = "position"
	tableEvent    = "event"
)

var tables = []string{tableAccount, tableSecurity, tableBalance, tablePosition, tableEvent}

// Record shapes. Decimals and timestamps travel as strings so the CBOR
// codec never rounds or re-zones them.

type accountRecord struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	CreatedAt string `json:"created_at"`
}

type securityRecord struct {
	SecurityID string `json:"security_id"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	CreatedAt  string `json:"created_at"`
}

type balanceRecord struct {
	Account   string `json:"account"`
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	UpdatedAt string `json:"updated_at"`
}

type positionRecord struct {
	Account   string `json:"account"`
	Security  string `json:"security"`
	Quantity  string `json:"quantity"`
	Cost      string `json:"cost"`
	UpdatedAt string `json:"updated_at"`
}

type eventRecord struct {
	Kind       string `json:"kind"`
	EventID    string `json:"event_id"`
	OccurredAt int64  `json:"occurred_at"`
	Deleted    bool   `json:"deleted"`
	Payload    string `json:"payload"`
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	ts, _ := time.Parse(time.RFC3339Nano, s)
	return ts
}

func accountRID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableAccount, id)
}

func securityRID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableSecurity, id)
}

func balanceRID(account, currency string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableBalance, []any{account, currency})
}

func positionRID(account, security string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tablePosition, []any{account, security})
}

func eventRID(ref models.EventRef) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableEvent, []any{string(ref.Kind), ref.ID})
}

func (r accountRecord) toModel() *models.Account {
	return &models.Account{
		ID:        r.AccountID,
		Name:      r.Name,
		Kind:      models.AccountKind(r.Kind),
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func (r securityRecord) toModel() *models.Security {
	return &models.Security{
		ID:        r.SecurityID,
		Symbol:    r.Symbol,
		Name:      r.Name,
		Currency:  r.Currency,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func (r balanceRecord) toModel() (models.Balance, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Balance{}, fmt.Errorf("corrupt balance %s/%s: %w", r.Account, r.Currency, err)
	}
	return models.Balance{
		Account:   r.Account,
		Currency:  r.Currency,
		Amount:    amount,
		UpdatedAt: parseTime(r.UpdatedAt),
	}, nil
}

func (r positionRecord) toModel() (models.Position, error) {
	qty, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return models.Position{}, fmt.Errorf("corrupt position %s/%s: %w", r.Account, r.Security, err)
	}
	cost, err := decimal.NewFromString(r.Cost)
	if err != nil {
		return models.Position{}, fmt.Errorf("corrupt position %s/%s: %w", r.Account, r.Security, err)
	}
	return models.Position{
		Account:   r.Account,
		Security:  r.Security,
		Quantity:  qty,
		Cost:      cost,
		UpdatedAt: parseTime(r.UpdatedAt),
	}, nil
}

func (r eventRecord) toModel() (models.Event, error) {
	return models.DecodeEvent(models.EventKind(r.Kind), []byte(r.Payload))
}
