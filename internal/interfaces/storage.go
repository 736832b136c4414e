// Package interfaces defines service and storage contracts for Purse
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/purse/internal/models"
	"github.com/shopspring/decimal"
)

// StorageManager coordinates the ledger store. Every mutation runs inside
// Update; every consistent read inside View.
type StorageManager interface {
	// Update runs fn inside one all-or-nothing write transaction. A non-nil
	// error from fn rolls back every write fn made.
	Update(ctx context.Context, fn func(tx LedgerTx) error) error

	// View runs fn against a read snapshot that never observes a
	// half-committed Update.
	View(ctx context.Context, fn func(tx LedgerView) error) error

	// Backend names the storage backend ("sqlite", "postgres", "surrealdb").
	Backend() string

	// Lifecycle
	Close() error
}

// LedgerView is the read side of a ledger transaction.
type LedgerView interface {
	// Reference data
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	GetSecurity(ctx context.Context, id string) (*models.Security, error)
	ListSecurities(ctx context.Context) ([]*models.Security, error)

	// Aggregates. GetBalance and GetPosition return zero-valued records when
	// no row exists yet.
	GetBalance(ctx context.Context, account, currency string) (models.Balance, error)
	ListBalances(ctx context.Context) ([]models.Balance, error)
	GetPosition(ctx context.Context, account, security string) (models.Position, error)
	ListPositions(ctx context.Context) ([]models.Position, error)

	// Events. GetEvent also returns soft-deleted records; ListEvents returns
	// only live ones with Timestamp >= from, oldest first.
	GetEvent(ctx context.Context, ref models.EventRef) (models.Event, error)
	ListEvents(ctx context.Context, kind models.EventKind, from time.Time) ([]models.Event, error)
}

// LedgerTx is the write side of a ledger transaction. Balances and positions
// change only through signed deltas.
type LedgerTx interface {
	LedgerView

	AddBalance(ctx context.Context, account, currency string, delta decimal.Decimal) error
	AddPosition(ctx context.Context, account, security string, quantity, cost decimal.Decimal) error

	SaveAccount(ctx context.Context, account *models.Account) error
	SaveSecurity(ctx context.Context, security *models.Security) error

	InsertEvent(ctx context.Context, ev models.Event) error
	ReplaceEvent(ctx context.Context, ev models.Event) error
	// DeleteEvent soft-deletes cash and exchange records (stamping
	// DeletedAt) and hard-deletes trades.
	DeleteEvent(ctx context.Context, ref models.EventRef, at time.Time) error
}
