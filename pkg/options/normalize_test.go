package options

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nseopt/pkg/nse"
)

func TestNormalize(t *testing.T) {
	page := PageContext{
		Symbol:     "TCS",
		Expiry:     time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC),
		OptionType: Call,
	}
	rows := []nse.QuoteRow{
		{
			Symbol:          "IGNORED",
			ExpiryDate:      "28-Nov-2024",
			StrikePrice:     nse.NumOf(4000),
			OptionType:      "PE",
			Timestamp:       "01-Nov-2024",
			Close:           nse.NumOf(12.5),
			TradedQty:       nse.NumOf(-5),
			OpenInterest:    nse.NumOf(1200),
			ChangeInOI:      nse.NumOf(-300),
			MarketLot:       nse.NumOf(175),
			UnderlyingValue: nse.NumOf(4050.25),
		},
		{
			StrikePrice: nse.NumOf(4100),
			Timestamp:   "04-Nov-2024",
		},
		{Timestamp: "05-Nov-2024"},
		{StrikePrice: nse.NumOf(4200), Timestamp: "garbage"},
		{StrikePrice: nse.NumOf(4200), Timestamp: "05-Nov-2024", OptionType: "XX"},
	}

	records, skipped := Normalize(page, rows)
	require.Len(t, records, 2)
	require.Len(t, skipped, 3)
	require.Equal(t, []int{2, 3, 4}, []int{skipped[0].Index, skipped[1].Index, skipped[2].Index})

	first := records[0]
	require.Equal(t, "TCS", first.Symbol)
	require.Equal(t, Put, first.OptionType)
	require.True(t, first.StrikePrice.Equal(decimal.NewFromInt(4000)))
	require.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), first.TradeDate)
	require.False(t, first.Volume.Valid, "negative volume becomes NULL")
	require.Equal(t, int64(1200), first.OpenInterest.Int64)
	require.Equal(t, int64(-300), first.ChangeInOpenInterest.Int64)
	require.Equal(t, int64(175), first.MarketLot.Int64)
	require.False(t, first.Open.Valid)
	require.Equal(t, "12.5", first.Close.Decimal.String())

	second := records[1]
	require.Equal(t, Call, second.OptionType, "falls back to the requested type")
	require.Equal(t, page.Expiry, second.ExpiryDate, "falls back to the requested expiry")

	require.True(t, UnderlyingOf(rows).Equal(decimal.RequireFromString("4050.25")))
	require.True(t, UnderlyingOf(nil).IsZero())
}
