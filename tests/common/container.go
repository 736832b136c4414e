// Package common holds helpers shared by the container-backed storage tests.
package common

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// endpoint is the host and mapped port of one running container.
type endpoint struct {
	container testcontainers.Container
	host      string
	port      string
}

// sharedContainer starts req at most once per test binary. A start failure
// is remembered and reported to every caller.
type sharedContainer struct {
	name string
	port string
	req  testcontainers.ContainerRequest

	once sync.Once
	ep   *endpoint
	err  error
}

func (s *sharedContainer) start(t *testing.T) *endpoint {
	t.Helper()
	if testing.Short() {
		t.Skipf("%s container tests skipped in short mode", s.name)
	}
	s.once.Do(func() { s.ep, s.err = s.run(context.Background()) })
	if s.err != nil {
		t.Fatalf("%s container failed: %v", s.name, s.err)
	}
	return s.ep
}

func (s *sharedContainer) run(ctx context.Context) (*endpoint, error) {
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: s.req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", s.name, err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("%s host: %w", s.name, err)
	}
	mapped, err := c.MappedPort(ctx, s.port)
	if err != nil {
		c.Terminate(ctx)
		return nil, fmt.Errorf("%s port: %w", s.name, err)
	}
	return &endpoint{container: c, host: host, port: mapped.Port()}, nil
}

// Cleanup terminates the container. Call from TestMain if needed.
func (e *endpoint) Cleanup() {
	if e != nil && e.container != nil {
		e.container.Terminate(context.Background())
	}
}
