package options

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseOptionType(t *testing.T) {
	for raw, want := range map[string]OptionType{"CE": Call, "call": Call, " pe ": Put, "PUT": Put} {
		got, err := ParseOptionType(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got)
	}
	_, err := ParseOptionType("XX")
	require.ErrorIs(t, err, ErrInvalidOptionType)

	require.Equal(t, "CE", Call.WireCode())
	require.Equal(t, "PE", Put.WireCode())
}

func TestDates(t *testing.T) {
	d, err := ParseDate("28-NOV-2024")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC), d)
	require.Equal(t, "28-NOV-2024", FormatDate(d))

	_, err = ParseDate("2024-11-28")
	require.Error(t, err)
}

func TestRecordKeyComparesStrikeByValue(t *testing.T) {
	day := time.Date(2024, 11, 1, 15, 30, 0, 0, time.UTC)
	a := OptionQuoteRecord{Symbol: "TCS", ExpiryDate: day, StrikePrice: decimal.RequireFromString("4000.00"), OptionType: Call, TradeDate: day}
	b := a
	b.StrikePrice = decimal.NewFromInt(4000)
	b.TradeDate = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, a.Key(), b.Key())

	b.OptionType = Put
	require.NotEqual(t, a.Key(), b.Key())
}

func TestStatsDateRange(t *testing.T) {
	require.Equal(t, "No data", Stats{}.DateRange())
	require.True(t, Stats{}.Empty())

	s := Stats{
		TotalRecords:  2,
		UniqueSymbols: 1,
		MinTradeDate:  time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		MaxTradeDate:  time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC),
	}
	require.Equal(t, "01-NOV-2024 to 02-NOV-2024", s.DateRange())
}
