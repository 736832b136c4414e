// Package storage selects and opens the ledger storage backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/storage/sqlstore"
	"github.com/bobmcallan/purse/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendSurrealDB = "surrealdb"
)

// NewStorageManager creates the StorageManager named by config.Storage.Backend.
// Supported backends: "sqlite" (default), "postgres", "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendSQLite // Default to a local file
	}

	var (
		m   interfaces.StorageManager
		err error
	)
	switch backend {
	case BackendSQLite:
		m, err = sqlstore.OpenSQLite(logger, config.Storage.SQLite.Path)

	case BackendPostgres:
		m, err = sqlstore.OpenPostgres(logger, config.Storage.Postgres.DSN, config.Storage.Postgres.MaxOpenConns)

	case BackendSurrealDB:
		m, err = surrealdb.NewManager(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, postgres, surrealdb)", backend)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
