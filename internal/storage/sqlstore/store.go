// Package sqlstore implements the ledger StorageManager on database/sql,
// shared by the SQLite and PostgreSQL backends.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// writeLockKey is the pg_advisory_xact_lock key every PostgreSQL write
// transaction takes before its first read.
const writeLockKey int64 = 0x7075727365

// Store is a database/sql backed StorageManager.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *common.Logger
}

// OpenSQLite opens (creating if needed) the database file at path. Write
// transactions take the database lock at BEGIN so concurrent mutations
// serialise instead of failing on lock upgrade.
func OpenSQLite(logger *common.Logger, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: a single writer, and ":memory:" stays one database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dialect: SQLite, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("SQLite ledger store initialized")
	return s, nil
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(logger *common.Logger, dsn string, maxOpenConns int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &Store{db: db, dialect: Postgres, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Int("max_open_conns", maxOpenConns).Msg("PostgreSQL ledger store initialized")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Update runs fn in one write transaction, committing only when fn returns nil.
// Writers are serialised on both dialects: SQLite through its immediate
// transaction lock, PostgreSQL through a transaction-scoped advisory lock
// held until commit or rollback. Reads an engine makes before writing
// (average cost, balances) therefore cannot go stale mid-transaction.
func (s *Store) Update(ctx context.Context, fn func(tx interfaces.LedgerTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			sqlTx.Rollback()
		}
	}()

	if s.dialect == Postgres {
		if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writeLockKey); err != nil {
			return fmt.Errorf("failed to acquire write lock: %w", err)
		}
	}

	if err := fn(&ledgerTx{tx: sqlTx, store: s}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// View runs fn in a read-only transaction. PostgreSQL uses a repeatable
// read snapshot; SQLite's transaction already reads one snapshot.
func (s *Store) View(ctx context.Context, fn func(tx interfaces.LedgerView) error) error {
	opts := &sql.TxOptions{ReadOnly: true}
	if s.dialect == Postgres {
		opts.Isolation = sql.LevelRepeatableRead
	}
	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer sqlTx.Rollback()

	return fn(&ledgerTx{tx: sqlTx, store: s})
}

// Backend returns the dialect name.
func (s *Store) Backend() string {
	return string(s.dialect)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate returns the row-lock suffix for read-modify-write selects.
func (s *Store) forUpdate() string {
	if s.dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

var _ interfaces.StorageManager = (*Store)(nil)
