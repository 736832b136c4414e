package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/purse/internal/common"
	"github.com/bobmcallan/purse/internal/interfaces"
	"github.com/bobmcallan/purse/internal/ledger"
	"github.com/bobmcallan/purse/internal/models"
	"github.com/bobmcallan/purse/internal/services/bookkeeping"
	"github.com/bobmcallan/purse/internal/services/networth"
	"github.com/bobmcallan/purse/internal/services/trend"
	"github.com/bobmcallan/purse/internal/storage"
)

// App holds the initialized storage and services.
// It is the shared core used by both cmd/purse-server and cmd/purse.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	Engine             *ledger.Engine
	BookkeepingService *bookkeeping.Service
	NetWorthService    *networth.Service
	TrendService       *trend.Service
	StartupTime        time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath checks the provided path, PURSE_CONFIG, the binary
// directory, then the development fallback.
func ResolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("PURSE_CONFIG"); env != "" {
		return env
	}
	candidate := filepath.Join(getBinaryDir(), "purse.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return "config/purse.toml"
}

// NewApp loads configuration and initializes storage and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return newApp(config, logger, startupStart)
}

// NewAppWithConfig builds an App from an already loaded configuration.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return newApp(config, logger, time.Now())
}

func newApp(config *common.Config, logger *common.Logger, startupStart time.Time) (*App, error) {
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine := ledger.NewEngine(config.HomeCurrency)
	rates := models.RatesFromFloats(config.Rates)

	netWorthService := networth.NewService(storageManager, config.HomeCurrency, rates, logger)
	a := &App{
		Config:             config,
		Logger:             logger,
		Storage:            storageManager,
		Engine:             engine,
		BookkeepingService: bookkeeping.NewService(storageManager, engine, logger),
		NetWorthService:    netWorthService,
		TrendService:       trend.NewService(storageManager, netWorthService, config.Trend.GetLocation(), logger),
		StartupTime:        startupStart,
	}

	logger.Info().
		Str("backend", storageManager.Backend()).
		Str("home_currency", config.HomeCurrency).
		Dur("startup", time.Since(startupStart)).
		Msg("Application initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}
