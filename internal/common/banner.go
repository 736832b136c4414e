package common

import (
	"fmt"

	"github.com/ternarybob/banner"
)

const bannerWidth = 64

func newBanner() *banner.Banner {
	return banner.New().
		SetStyle(banner.StyleDouble).
		SetWidth(bannerWidth).
		SetBorderColor(banner.ColorCyan).
		SetTextColor(banner.ColorWhite).
		SetBold(true)
}

// PrintBanner prints the startup box to stdout and logs the same fields.
func PrintBanner(config *Config, logger *Logger) {
	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
	// label, log key, value
	fields := [][3]string{
		{"Version", "version", GetVersion()},
		{"Build", "build", GetBuild()},
		{"Commit", "commit", GetGitCommit()},
		{"Environment", "environment", config.Environment},
		{"Home currency", "home_currency", config.HomeCurrency},
		{"Service URL", "service_url", serviceURL},
		{"Storage", "storage", config.StorageDescription()},
	}

	b := newBanner()
	b.PrintTopLine()
	b.PrintCenteredText("PURSE")
	b.PrintCenteredText("multi-currency ledger")
	b.PrintSeparatorLine()
	for _, kv := range fields {
		b.PrintKeyValue(kv[0], kv[2], 14)
	}
	b.PrintBottomLine()

	event := logger.Info()
	for _, kv := range fields {
		event = event.Str(kv[1], kv[2])
	}
	event.Msg("Application started")
}

// PrintShutdownBanner prints a one-line box on shutdown.
func PrintShutdownBanner(logger *Logger) {
	b := newBanner().SetBorderColor(banner.ColorYellow)
	b.PrintTopLine()
	b.PrintCenteredText("PURSE shutting down")
	b.PrintBottomLine()

	logger.Info().Msg("Application shutting down")
}
