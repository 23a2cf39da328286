package options

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the upstream day format, e.g. 25-Dec-2025.
const DateLayout = "02-Jan-2006"

// ErrInvalidOptionType is returned for option type codes other than CALL/CE or PUT/PE.
var ErrInvalidOptionType = errors.New("options: invalid option type")

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// OptionTypes lists both types in fetch order.
var OptionTypes = []OptionType{Call, Put}

// ParseOptionType accepts CALL/PUT and the upstream CE/PE codes, case-insensitively.
func ParseOptionType(raw string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CALL", "CE":
		return Call, nil
	case "PUT", "PE":
		return Put, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOptionType, raw)
	}
}

// WireCode returns the upstream code (CE or PE).
func (t OptionType) WireCode() string {
	if t == Put {
		return "PE"
	}
	return "CE"
}

// RunType tags audit entries with the batch mode that produced them.
type RunType string

const (
	RunHistorical RunType = "HISTORICAL"
	RunDaily      RunType = "DAILY"
)

// Status is the terminal outcome of one symbol-level fetch attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
	StatusNoData  Status = "NO_DATA"
)

// QuoteKey is the natural key of a quote row.
type QuoteKey struct {
	Symbol      string
	ExpiryDate  time.Time
	StrikePrice string
	OptionType  OptionType
	TradeDate   time.Time
}

// OptionQuoteRecord is one observation of one contract on one trading day.
type OptionQuoteRecord struct {
	Symbol      string
	ExpiryDate  time.Time
	StrikePrice decimal.Decimal
	OptionType  OptionType
	TradeDate   time.Time

	Open            decimal.NullDecimal
	High            decimal.NullDecimal
	Low             decimal.NullDecimal
	Close           decimal.NullDecimal
	LastTradedPrice decimal.NullDecimal
	PrevClose       decimal.NullDecimal
	SettlePrice     decimal.NullDecimal

	Volume               sql.NullInt64
	Turnover             decimal.NullDecimal
	OpenInterest         sql.NullInt64
	ChangeInOpenInterest sql.NullInt64
	MarketLot            sql.NullInt64
	UnderlyingValue      decimal.NullDecimal
}

// Key returns the natural key. Strike prices are compared by value, so 100 and 100.00 collide.
func (r OptionQuoteRecord) Key() QuoteKey {
	return QuoteKey{
		Symbol:      r.Symbol,
		ExpiryDate:  truncateDay(r.ExpiryDate),
		StrikePrice: r.StrikePrice.String(),
		OptionType:  r.OptionType,
		TradeDate:   truncateDay(r.TradeDate),
	}
}

// FetchLogEntry is one audit record per symbol-level fetch attempt.
type FetchLogEntry struct {
	RunTimestamp   time.Time
	RunType        RunType
	Symbol         string
	Status         Status
	RecordsFetched int
	ErrorMessage   string
}

// Stats is the store-wide aggregate used for run summaries.
type Stats struct {
	TotalRecords  int64
	UniqueSymbols int64
	MinTradeDate  time.Time
	MaxTradeDate  time.Time
}

// Empty reports the "no data" sentinel.
func (s Stats) Empty() bool {
	return s.TotalRecords == 0
}

// DateRange renders the covered trade dates, or "No data".
func (s Stats) DateRange() string {
	if s.Empty() || s.MinTradeDate.IsZero() {
		return "No data"
	}
	return fmt.Sprintf("%s to %s", FormatDate(s.MinTradeDate), FormatDate(s.MaxTradeDate))
}

// ParseDate parses the upstream DD-Mon-YYYY form. Month names match case-insensitively.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate renders a day as DD-MON-YYYY.
func FormatDate(t time.Time) string {
	return strings.ToUpper(t.Format(DateLayout))
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
