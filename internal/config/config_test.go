package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaultsAndSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nse.yaml", "base_url: ${NSE_TEST_URL}\nmax_concurrency: 2\n")
	main := writeFile(t, dir, "fetcher.yaml", `
Name: nse-fetcher
Env: dev
Postgres:
  DSN: ${NSEOPT_TEST_PG}
Fetch:
  Symbols: [tcs, " infy ", TCS]
NSE:
  File: nse.yaml
`)
	t.Setenv("NSE_TEST_URL", "http://127.0.0.1:9999")
	t.Setenv("NSEOPT_TEST_PG", "postgres://u:p@localhost:5432/nse?sslmode=disable")

	cfg, err := Load(main)
	require.NoError(t, err)
	require.Equal(t, "nse-fetcher", cfg.Name)
	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.IsTestEnv())
	require.Equal(t, "postgres://u:p@localhost:5432/nse?sslmode=disable", cfg.Postgres.DSN)
	require.Equal(t, dir, cfg.BaseDir())
	require.Equal(t, main, cfg.MainPath())

	require.Equal(t, 180, cfg.Fetch.HistoricalDays)
	require.Equal(t, 2, cfg.Fetch.DailyDays)
	require.Equal(t, 500*time.Millisecond, cfg.Fetch.StrikeDelay())
	require.Equal(t, 2*time.Second, cfg.Fetch.ExpiryDelay())
	require.Equal(t, 5*time.Second, cfg.Fetch.HistoricalSymbolDelay())
	require.Equal(t, 3*time.Second, cfg.Fetch.DailySymbolDelay())
	require.Equal(t, []string{"TCS", "INFY"}, cfg.Fetch.AllSymbols())

	nseCfg := cfg.NSEConfig()
	require.Equal(t, "http://127.0.0.1:9999", nseCfg.BaseURL)
	require.Equal(t, 2, nseCfg.MaxConcurrency)
	require.Equal(t, filepath.Join(dir, "nse.yaml"), cfg.NSE.File)
}

func TestLoadWithoutNSESectionUsesDefaults(t *testing.T) {
	main := writeFile(t, t.TempDir(), "fetcher.yaml", "Name: nse-fetcher\n")
	cfg, err := Load(main)
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Env)
	require.False(t, cfg.NSE.Configured())
	require.Equal(t, 3, cfg.NSEConfig().MaxConcurrency)
	require.Len(t, cfg.Fetch.AllSymbols(), 50)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TTL: CacheTTL{Short: 10, Medium: 60, Long: 300},
			Fetch: FetchConf{
				HistoricalDays: 180, DailyDays: 2, HistoricalDefaultLimit: 5,
				MaxExpiries: 3, MaxStrikes: 10, StrikeBand: 0.1, WindowDays: 90,
			},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"bad env":       func(c *Config) { c.Env = "staging" },
		"ttl":           func(c *Config) { c.TTL.Short = 0 },
		"days":          func(c *Config) { c.Fetch.HistoricalDays = 0 },
		"band":          func(c *Config) { c.Fetch.StrikeBand = 1.5 },
		"negative wait": func(c *Config) { c.Fetch.StrikeDelayMs = -1 },
		"year":          func(c *Config) { c.Fetch.Years = []int{1999} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestHistoricalTargets(t *testing.T) {
	f := FetchConf{HistoricalDays: 180, HistoricalDefaultLimit: 5}

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(envFetchStocks, "")
		t.Setenv(envFetchDays, "")
		symbols, days, err := f.HistoricalTargets(nil, 0)
		require.NoError(t, err)
		require.Equal(t, Nifty50[:5], symbols)
		require.Equal(t, 180, days)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(envFetchStocks, "sbin, itc")
		t.Setenv(envFetchDays, "30")
		symbols, days, err := f.HistoricalTargets(nil, 0)
		require.NoError(t, err)
		require.Equal(t, []string{"SBIN", "ITC"}, symbols)
		require.Equal(t, 30, days)
	})

	t.Run("explicit wins", func(t *testing.T) {
		t.Setenv(envFetchStocks, "SBIN")
		t.Setenv(envFetchDays, "30")
		symbols, days, err := f.HistoricalTargets([]string{"TCS"}, 7)
		require.NoError(t, err)
		require.Equal(t, []string{"TCS"}, symbols)
		require.Equal(t, 7, days)
	})

	t.Run("bad days", func(t *testing.T) {
		t.Setenv(envFetchDays, "soon")
		_, _, err := f.HistoricalTargets(nil, 0)
		require.Error(t, err)
	})
}

func TestDailyTargets(t *testing.T) {
	f := FetchConf{Symbols: []string{"TCS"}}
	require.Equal(t, []string{"TCS"}, f.DailyTargets(nil))
	require.Equal(t, []string{"ITC"}, f.DailyTargets([]string{"itc"}))
	require.Len(t, FetchConf{}.DailyTargets(nil), 50)
}
