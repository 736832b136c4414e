package common

import (
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var surrealdb = &sharedContainer{
	name: "SurrealDB",
	port: "8000/tcp",
	req: testcontainers.ContainerRequest{
		Image:        "surrealdb/surrealdb:v3.0.0",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"start", "--user", "root", "--pass", "root"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("8000/tcp"),
			wait.ForLog("Started web server"),
		).WithDeadline(60 * time.Second),
	},
}

// SurrealDBContainer is a running SurrealDB with root/root credentials.
type SurrealDBContainer struct{ *endpoint }

// StartSurrealDB returns the process-wide SurrealDB container, starting it
// on first use. Skipped under -short.
func StartSurrealDB(t *testing.T) *SurrealDBContainer {
	t.Helper()
	return &SurrealDBContainer{surrealdb.start(t)}
}

// Address returns the WebSocket RPC address.
func (c *SurrealDBContainer) Address() string {
	return fmt.Sprintf("ws://%s:%s/rpc", c.host, c.port)
}
