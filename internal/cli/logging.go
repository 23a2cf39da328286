package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/internal/config"
	"nseopt/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	fetch := cfg.Fetch
	years := "last 4 calendar years"
	if len(fetch.Years) > 0 {
		years = strings.Trim(fmt.Sprint(fetch.Years), "[]")
	}
	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("TTL (short/medium/long): %ds / %ds / %ds", cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long),
		fmt.Sprintf("Symbols: %d", len(fetch.AllSymbols())),
		fmt.Sprintf("Expiry years: %s", years),
		fmt.Sprintf("Lookback (historical/daily): %dd / %dd", fetch.HistoricalDays, fetch.DailyDays),
		fmt.Sprintf("Plan bounds: %d expiries, %d strikes, ±%.0f%% band", fetch.MaxExpiries, fetch.MaxStrikes, fetch.StrikeBand*100),
		fmt.Sprintf("Pauses (strike/expiry/symbol): %s / %s / %s", fetch.StrikeDelay(), fetch.ExpiryDelay(), fetch.HistoricalSymbolDelay()),
		fmt.Sprintf("Journal: %s", orNone(fetch.JournalDir)),
		sectionLine("NSE config", cfg.NSE),
	}
	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "disabled"
	}
	return s
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: defaults", name)
	}
}
