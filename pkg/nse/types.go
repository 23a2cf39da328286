package nse

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QueryDateLayout is the from/to format accepted by the historical endpoints.
const QueryDateLayout = "02-01-2006"

// Num decodes an upstream numeric field. The API mixes JSON numbers and strings;
// "", "-" and null decode as an invalid (NULL) value.
type Num struct {
	decimal.NullDecimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Num) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	switch raw {
	case "", "-", "null", "NaN":
		n.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("nse: invalid number %s: %w", string(data), err)
	}
	n.NullDecimal = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

// NumOf builds a valid Num, mostly for tests and fixtures.
func NumOf(v float64) Num {
	return Num{decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}}
}

// ExpiryResponse is the payload of the expiry-list endpoint.
type ExpiryResponse struct {
	ExpiryDates []string `json:"expiresDts"`
}

// QuoteResponse is one page of the historical quotes endpoint.
type QuoteResponse struct {
	Data []QuoteRow `json:"data"`
}

// QuoteRow is a raw quote row. Field names follow the upstream FH_* keys.
type QuoteRow struct {
	Symbol          string `json:"FH_SYMBOL,omitempty"`
	Instrument      string `json:"FH_INSTRUMENT,omitempty"`
	ExpiryDate      string `json:"FH_EXPIRY_DT"`
	StrikePrice     Num    `json:"FH_STRIKE_PRICE"`
	OptionType      string `json:"FH_OPTION_TYPE"`
	Timestamp       string `json:"FH_TIMESTAMP"`
	Open            Num    `json:"FH_OPENING_PRICE"`
	High            Num    `json:"FH_TRADE_HIGH_PRICE"`
	Low             Num    `json:"FH_TRADE_LOW_PRICE"`
	Close           Num    `json:"FH_CLOSING_PRICE"`
	LastTradedPrice Num    `json:"FH_LAST_TRADED_PRICE"`
	PrevClose       Num    `json:"FH_PREV_CLS"`
	SettlePrice     Num    `json:"FH_SETTLE_PRICE"`
	TradedQty       Num    `json:"FH_TOT_TRADED_QTY"`
	TradedValue     Num    `json:"FH_TOT_TRADED_VAL"`
	OpenInterest    Num    `json:"FH_OPEN_INT"`
	ChangeInOI      Num    `json:"FH_CHANGE_IN_OI"`
	MarketLot       Num    `json:"FH_MARKET_LOT"`
	UnderlyingValue Num    `json:"FH_UNDERLYING_VALUE"`
}

// QuoteQuery addresses one (symbol, expiry, option type, strike, date range) slice.
type QuoteQuery struct {
	Symbol     string
	Year       int
	Expiry     string // upstream form, e.g. 25-Dec-2025
	OptionType string // CE or PE
	Strike     string // empty means every strike
	From       time.Time
	To         time.Time
}
