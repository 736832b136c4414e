package surrealdb

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	tcommon "github.com/bobmcallan/purse/tests/common"
)

// testConfig starts the shared SurrealDB container and returns a config
// pointing at a database unique to the test.
func testConfig(t *testing.T) *common.Config {
	t.Helper()
	sc := tcommon.StartSurrealDB(t)

	// Sanitize t.Name() because subtests produce names like "Test/subtest"
	// and SurrealDB rejects "/" in database names.
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage.Backend = "surrealdb"
	cfg.Storage.SurrealDB = common.SurrealDBConfig{
		Address:   sc.Address(),
		Namespace: "purse_test",
		Database:  fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000),
		Username:  "root",
		Password:  "root",
	}
	return cfg
}

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testLogger(), testConfig(t))
	if err != nil {
		t.Fatalf("create SurrealDB manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

// testLogger returns a silent logger for tests.
func testLogger() *common.Logger {
	return common.NewSilentLogger()
}
