// Package interfaces defines service contracts for Purse
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/purse/internal/models"
)

// BookkeepingService records, revises and removes ledger events and keeps
// balances and positions in lockstep with them.
type BookkeepingService interface {
	// Record stores a new event and applies its effect. The returned event
	// carries its id and write-time fields (realized gain, currencies).
	Record(ctx context.Context, ev models.Event) (models.Event, error)

	// Revise replaces the stored event with the same ref by ev, retracting
	// the old effect and applying the new one in one transaction.
	Revise(ctx context.Context, ev models.Event) (models.Event, error)

	// Remove retracts the event's effect and deletes the record.
	Remove(ctx context.Context, ref models.EventRef) error

	GetEvent(ctx context.Context, ref models.EventRef) (models.Event, error)
	ListEvents(ctx context.Context, kind models.EventKind, from time.Time) ([]models.Event, error)

	// Reference data
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	CreateSecurity(ctx context.Context, security *models.Security) (*models.Security, error)
	ListSecurities(ctx context.Context) ([]*models.Security, error)

	// Aggregates
	Balances(ctx context.Context) ([]models.Balance, error)
	Positions(ctx context.Context) ([]models.PositionView, error)
}

// NetWorthService totals balances and position costs in the home currency.
type NetWorthService interface {
	// NetWorth converts with rates layered over the configured table; nil
	// uses the configured table alone.
	NetWorth(ctx context.Context, rates models.Rates) (*models.NetWorth, error)
}

// TrendService reconstructs the monthly net-worth series.
type TrendService interface {
	// Trend returns the series from periodStart to now.
	Trend(ctx context.Context, periodStart time.Time, rates models.Rates) (*models.Trend, error)
}
