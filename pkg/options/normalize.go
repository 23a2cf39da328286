package options

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"nseopt/pkg/nse"
)

// PageContext carries the request a page of rows answered. Its fields fill
// values the rows leave blank; Symbol always comes from here.
type PageContext struct {
	Symbol     string
	Expiry     time.Time
	OptionType OptionType
}

// RowError describes one row that could not be normalized.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

// Normalize maps upstream rows to records. Rows missing a usable strike or
// trade date are skipped and reported; the page itself never fails.
func Normalize(page PageContext, rows []nse.QuoteRow) ([]OptionQuoteRecord, []RowError) {
	records := make([]OptionQuoteRecord, 0, len(rows))
	var skipped []RowError
	for i, row := range rows {
		rec, err := normalizeRow(page, row)
		if err != nil {
			skipped = append(skipped, RowError{Index: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

func normalizeRow(page PageContext, row nse.QuoteRow) (OptionQuoteRecord, error) {
	if !row.StrikePrice.Valid {
		return OptionQuoteRecord{}, fmt.Errorf("missing FH_STRIKE_PRICE")
	}
	tradeDate, err := ParseDate(row.Timestamp)
	if err != nil {
		return OptionQuoteRecord{}, fmt.Errorf("FH_TIMESTAMP %q: %w", row.Timestamp, err)
	}

	expiry := page.Expiry
	if row.ExpiryDate != "" {
		parsed, err := ParseDate(row.ExpiryDate)
		if err != nil {
			return OptionQuoteRecord{}, fmt.Errorf("FH_EXPIRY_DT %q: %w", row.ExpiryDate, err)
		}
		expiry = parsed
	}
	if expiry.IsZero() {
		return OptionQuoteRecord{}, fmt.Errorf("missing FH_EXPIRY_DT")
	}

	optType := page.OptionType
	if row.OptionType != "" {
		if optType, err = ParseOptionType(row.OptionType); err != nil {
			return OptionQuoteRecord{}, err
		}
	}
	if optType == "" {
		return OptionQuoteRecord{}, fmt.Errorf("missing FH_OPTION_TYPE")
	}

	return OptionQuoteRecord{
		Symbol:      page.Symbol,
		ExpiryDate:  expiry,
		StrikePrice: row.StrikePrice.Decimal,
		OptionType:  optType,
		TradeDate:   tradeDate,

		Open:            row.Open.NullDecimal,
		High:            row.High.NullDecimal,
		Low:             row.Low.NullDecimal,
		Close:           row.Close.NullDecimal,
		LastTradedPrice: row.LastTradedPrice.NullDecimal,
		PrevClose:       row.PrevClose.NullDecimal,
		SettlePrice:     row.SettlePrice.NullDecimal,

		Volume:               nonNegative(toInt(row.TradedQty)),
		Turnover:             row.TradedValue.NullDecimal,
		OpenInterest:         nonNegative(toInt(row.OpenInterest)),
		ChangeInOpenInterest: toInt(row.ChangeInOI),
		MarketLot:            toInt(row.MarketLot),
		UnderlyingValue:      row.UnderlyingValue.NullDecimal,
	}, nil
}

func toInt(n nse.Num) sql.NullInt64 {
	if !n.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n.Decimal.Round(0).IntPart(), Valid: true}
}

func nonNegative(v sql.NullInt64) sql.NullInt64 {
	if v.Valid && v.Int64 < 0 {
		return sql.NullInt64{}
	}
	return v
}

// UnderlyingOf returns the first row's underlying price, or zero.
func UnderlyingOf(rows []nse.QuoteRow) decimal.Decimal {
	if len(rows) == 0 || !rows[0].UnderlyingValue.Valid {
		return decimal.Zero
	}
	return rows[0].UnderlyingValue.Decimal
}
