//go:build integration
// +build integration

package optionstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	_ "nseopt/internal/bootstrap/dotenv" // load .env for NSEOPT_TEST_DSN
	"nseopt/internal/persistence/optionstore"
	"nseopt/pkg/options"
)

// newIntegrationStore connects to NSEOPT_TEST_DSN and starts from empty tables.
func newIntegrationStore(t *testing.T) *optionstore.Service {
	t.Helper()
	dsn := os.Getenv("NSEOPT_TEST_DSN")
	if dsn == "" {
		t.Skip("NSEOPT_TEST_DSN not set; skipping Postgres integration test")
	}
	conn := sqlx.NewSqlConn("pgx", dsn)
	store := optionstore.NewService(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, store.Initialize(ctx))
	require.NoError(t, store.Initialize(ctx), "initialize must be idempotent")

	_, err := conn.ExecCtx(ctx, "TRUNCATE option_data, fetch_log RESTART IDENTITY")
	require.NoError(t, err)
	return store
}

func quote(symbol string, strike string, day time.Time) options.OptionQuoteRecord {
	return options.OptionQuoteRecord{
		Symbol:      symbol,
		ExpiryDate:  time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC),
		StrikePrice: decimal.RequireFromString(strike),
		OptionType:  options.Call,
		TradeDate:   day,
		Close:       decimal.NewNullDecimal(decimal.RequireFromString("10.25")),
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	day := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	records := []options.OptionQuoteRecord{quote("TCS", "4000", day), quote("TCS", "4100", day)}
	n, err := store.UpsertQuotes(ctx, records)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = store.UpsertQuotes(ctx, records)
	require.NoError(t, err)
	require.Zero(t, n)

	// 4000.00 and 4000 are the same strike.
	n, err = store.UpsertQuotes(ctx, []options.OptionQuoteRecord{quote("TCS", "4000.00", day)})
	require.NoError(t, err)
	require.Zero(t, n)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalRecords)
}

func TestStatsScenario(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, "No data", stats.DateRange())

	_, err = store.UpsertQuotes(ctx, []options.OptionQuoteRecord{
		quote("RELIANCE", "2900", time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)),
		quote("RELIANCE", "2900", time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.TotalRecords)
	require.EqualValues(t, 1, stats.UniqueSymbols)
	require.Equal(t, "01-NOV-2024 to 02-NOV-2024", stats.DateRange())
}

func TestAppendLogAndRecent(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	base := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)

	for i, status := range []options.Status{options.StatusSuccess, options.StatusError, options.StatusNoData} {
		entry := options.FetchLogEntry{
			RunTimestamp: base.Add(time.Duration(i) * time.Minute),
			RunType:      options.RunDaily,
			Symbol:       fmt.Sprintf("SYM%d", i),
			Status:       status,
		}
		if status == options.StatusError {
			entry.ErrorMessage = "upstream unreachable"
		}
		require.NoError(t, store.AppendLog(ctx, entry))
	}

	recent, err := store.RecentLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "SYM2", recent[0].Symbol)
	require.Equal(t, options.StatusError, recent[1].Status)
	require.Equal(t, "upstream unreachable", recent[1].ErrorMessage)
}
