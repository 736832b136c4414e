package surrealdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// Manager implements interfaces.StorageManager using SurrealDB.
//
// Mutations are serialised by mu and buffered in a ledgerTx; the buffer is
// sent as one BEGIN/COMMIT query, so a failed mutation writes nothing.
// Views hold the read side of mu and never see a commit in flight.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger
	mu     sync.RWMutex
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()
	cfg := config.Storage.SurrealDB

	// Connect to SurrealDB
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	// Sign in
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	// Select namespace and database
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB ledger store initialized")

	return m, nil
}

// newManager wraps an already connected and scoped handle.
func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	return &Manager{db: db, logger: logger}, nil
}

// Update runs fn against a buffered transaction and commits its writes in
// one query when fn succeeds.
func (m *Manager) Update(ctx context.Context, fn func(tx interfaces.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := newLedgerTx(m.db)
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	if n := len(tx.stmts); n > 0 {
		m.logger.Debug().Int("statements", n).Msg("Ledger transaction committed")
	}
	return nil
}

// View runs fn with writers excluded.
func (m *Manager) View(ctx context.Context, fn func(tx interfaces.LedgerView) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(newLedgerTx(m.db))
}

func (m *Manager) Backend() string {
	return "surrealdb"
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
