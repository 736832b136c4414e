package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a minimal sqlite-backed config into a temp dir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.ToSlash(filepath.Join(dir, "purse.db"))
	content := `environment = "test"
home_currency = "eur"

[storage]
backend = "sqlite"

[storage.sqlite]
path = "` + dbPath + `"

[logging]
level = "error"

[rates]
usd = 0.9
`
	path := filepath.Join(dir, "purse.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Storage.SQLite.Path = filepath.Join(t.TempDir(), "purse.db")
	a, err := NewAppWithConfig(config, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNewApp_InitializesAllServices(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Config)
	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.Storage)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.BookkeepingService)
	assert.NotNil(t, a.NetWorthService)
	assert.NotNil(t, a.TrendService)
	assert.False(t, a.StartupTime.IsZero())

	assert.Equal(t, "EUR", a.Config.HomeCurrency)
	assert.Equal(t, "EUR", a.Engine.HomeCurrency())
	assert.Equal(t, "sqlite", a.Storage.Backend())
	assert.Equal(t, "0.9", a.NetWorthService.Rates(nil).Rate("USD").String())
}

func TestNewAppWithConfig_RejectsBadHomeCurrency(t *testing.T) {
	config := common.NewDefaultConfig()
	config.HomeCurrency = "XXQ"
	_, err := NewAppWithConfig(config, common.NewSilentLogger())
	assert.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	a := newTestApp(t)
	a.Close()
	assert.Nil(t, a.Storage)
	a.Close()
}

func TestNewApp_ServicesShareStorage(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	nw, err := a.NetWorthService.NetWorth(ctx, nil)
	require.NoError(t, err)
	assert.True(t, nw.Total.IsZero())
	assert.Equal(t, "EUR", nw.Currency)
}
