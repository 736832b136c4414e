package sqlstore

// schema is portable between SQLite and PostgreSQL. Decimals are stored as
// text and summed in Go so no precision is lost to REAL/NUMERIC coercion.
// Event records are JSON payloads keyed by (kind, id), with the occurrence
// time and soft-delete marker lifted into columns for filtering.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS securities (
		id         TEXT PRIMARY KEY,
		symbol     TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		currency   TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		account    TEXT NOT NULL,
		currency   TEXT NOT NULL,
		amount     TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (account, currency)
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		account    TEXT NOT NULL,
		security   TEXT NOT NULL,
		quantity   TEXT NOT NULL,
		cost       TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (account, security)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		kind        TEXT NOT NULL,
		id          TEXT NOT NULL,
		occurred_at BIGINT NOT NULL,
		deleted_at  BIGINT,
		payload     TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS events_live_by_time ON events (kind, occurred_at)`,
}
