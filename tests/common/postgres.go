package common

import (
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresUser     = "purse"
	postgresPassword = "purse"
	postgresDB       = "purse"
)

var postgres = &sharedContainer{
	name: "PostgreSQL",
	port: "5432/tcp",
	req: testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		// The server restarts once after init; wait for the second ready line.
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(60 * time.Second),
	},
}

// PostgresContainer is a running PostgreSQL server.
type PostgresContainer struct{ *endpoint }

// StartPostgres returns the process-wide PostgreSQL container, starting it
// on first use. Skipped under -short.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return &PostgresContainer{postgres.start(t)}
}

// DSN returns a connection string for database, or the default database
// when it is empty.
func (c *PostgresContainer) DSN(database string) string {
	if database == "" {
		database = postgresDB
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, c.host, c.port, database)
}
