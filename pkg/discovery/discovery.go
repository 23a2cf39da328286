package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/pkg/nse"
	"nseopt/pkg/options"
)

const (
	DefaultMaxExpiries = 3
	DefaultMaxStrikes  = 10
	DefaultWindowDays  = 90
	defaultYearSpan    = 4
)

// DefaultStrikeBand keeps strikes within ±10% of the underlying.
var DefaultStrikeBand = decimal.NewFromFloat(0.10)

// Source is the subset of the upstream client discovery needs.
type Source interface {
	ExpiryDates(ctx context.Context, symbol string, year int) ([]string, error)
	Quotes(ctx context.Context, q nse.QuoteQuery) ([]nse.QuoteRow, error)
}

// ExpiryCache stores expiry lists for years that are already over.
type ExpiryCache interface {
	GetExpiries(ctx context.Context, symbol string, year int) ([]string, bool, error)
	SetExpiries(ctx context.Context, symbol string, year int, dates []string) error
}

// Config bounds what one symbol's fetch plan may contain.
type Config struct {
	Years       []int
	MaxExpiries int
	MaxStrikes  int
	StrikeBand  decimal.Decimal
	WindowDays  int
}

// RawExpiry is an expiry string as listed for one year.
type RawExpiry struct {
	Raw  string
	Year int
}

// Expiry is a parsed, selected expiry.
type Expiry struct {
	Date time.Time
	Raw  string
	Year int
}

// ExpiryPlan is the fetch window and strike set for one expiry.
type ExpiryPlan struct {
	Expiry     time.Time
	ExpiryRaw  string
	Year       int
	From       time.Time
	To         time.Time
	Underlying decimal.Decimal
	Strikes    []decimal.Decimal
}

// Plan is the full set of slices to fetch for one symbol.
type Plan struct {
	Symbol     string
	Expiries   []ExpiryPlan
	NoExpiries bool
}

// Empty reports whether nothing is left to fetch.
func (p Plan) Empty() bool {
	return len(p.Expiries) == 0
}

// Discoverer turns a symbol and a lookback into a Plan.
type Discoverer struct {
	cfg    Config
	source Source
	cache  ExpiryCache
	now    func() time.Time
}

// Option customises a Discoverer.
type Option func(*Discoverer)

// WithCache serves past-year expiry lists from c.
func WithCache(c ExpiryCache) Option {
	return func(d *Discoverer) {
		d.cache = c
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Discoverer) {
		if now != nil {
			d.now = now
		}
	}
}

// New builds a Discoverer. Zero config fields take their defaults; Years
// defaults to the current calendar year and the three before it.
func New(cfg Config, source Source, opts ...Option) *Discoverer {
	d := &Discoverer{source: source, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if cfg.MaxExpiries <= 0 {
		cfg.MaxExpiries = DefaultMaxExpiries
	}
	if cfg.MaxStrikes <= 0 {
		cfg.MaxStrikes = DefaultMaxStrikes
	}
	if !cfg.StrikeBand.IsPositive() {
		cfg.StrikeBand = DefaultStrikeBand
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if len(cfg.Years) == 0 {
		cfg.Years = DefaultYears(d.now(), defaultYearSpan)
	} else {
		cfg.Years = append([]int(nil), cfg.Years...)
	}
	d.cfg = cfg
	return d
}

// Config returns the resolved configuration.
func (d *Discoverer) Config() Config {
	cfg := d.cfg
	cfg.Years = append([]int(nil), d.cfg.Years...)
	return cfg
}

// DefaultYears lists span calendar years ending with now's year, oldest first.
func DefaultYears(now time.Time, span int) []int {
	years := make([]int, 0, span)
	for y := now.Year() - span + 1; y <= now.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// Discover builds the fetch plan for symbol. Absent data yields an empty
// plan; only upstream transport failures are returned as errors.
func (d *Discoverer) Discover(ctx context.Context, symbol string, lookbackDays int) (Plan, error) {
	today := day(d.now())
	lookbackStart := today.AddDate(0, 0, -lookbackDays)
	plan := Plan{Symbol: symbol}

	raw, err := d.listExpiries(ctx, symbol, today.Year())
	if err != nil {
		return Plan{}, err
	}
	expiries := FilterExpiries(raw, lookbackStart, d.cfg.MaxExpiries)
	if len(expiries) == 0 {
		logx.WithContext(ctx).Infof("discovery: %s has no expiries on or after %s", symbol, options.FormatDate(lookbackStart))
		plan.NoExpiries = true
		return plan, nil
	}

	for _, exp := range expiries {
		windowEnd := minTime(exp.Date, today)
		windowStart := maxTime(exp.Date.AddDate(0, 0, -d.cfg.WindowDays), lookbackStart)
		if !windowStart.Before(windowEnd) {
			logx.WithContext(ctx).Debugf("discovery: %s %s window is empty", symbol, exp.Raw)
			continue
		}

		rows, err := d.source.Quotes(ctx, nse.QuoteQuery{
			Symbol:     symbol,
			Year:       exp.Year,
			Expiry:     exp.Raw,
			OptionType: options.Call.WireCode(),
			From:       windowEnd,
			To:         windowEnd,
		})
		if err != nil {
			return Plan{}, fmt.Errorf("probe strikes %s %s: %w", symbol, exp.Raw, err)
		}
		if len(rows) == 0 {
			logx.WithContext(ctx).Debugf("discovery: %s %s probe on %s returned no rows", symbol, exp.Raw, options.FormatDate(windowEnd))
			continue
		}

		underlying := options.UnderlyingOf(rows)
		strikes := SelectStrikes(rows, underlying, d.cfg.StrikeBand, d.cfg.MaxStrikes)
		if len(strikes) == 0 {
			continue
		}
		plan.Expiries = append(plan.Expiries, ExpiryPlan{
			Expiry:     exp.Date,
			ExpiryRaw:  exp.Raw,
			Year:       exp.Year,
			From:       windowStart,
			To:         windowEnd,
			Underlying: underlying,
			Strikes:    strikes,
		})
	}
	return plan, nil
}

func (d *Discoverer) listExpiries(ctx context.Context, symbol string, currentYear int) ([]RawExpiry, error) {
	var out []RawExpiry
	for _, year := range d.cfg.Years {
		dates, err := d.expiriesForYear(ctx, symbol, year, year < currentYear)
		if err != nil {
			return nil, err
		}
		for _, raw := range dates {
			out = append(out, RawExpiry{Raw: raw, Year: year})
		}
	}
	return out, nil
}

func (d *Discoverer) expiriesForYear(ctx context.Context, symbol string, year int, closed bool) ([]string, error) {
	if closed && d.cache != nil {
		dates, ok, err := d.cache.GetExpiries(ctx, symbol, year)
		switch {
		case err != nil:
			logx.WithContext(ctx).Slowf("discovery: expiry cache read %s/%d: %v", symbol, year, err)
		case ok:
			return dates, nil
		}
	}

	dates, err := d.source.ExpiryDates(ctx, symbol, year)
	if err != nil {
		return nil, err
	}
	if closed && d.cache != nil && len(dates) > 0 {
		if err := d.cache.SetExpiries(ctx, symbol, year, dates); err != nil {
			logx.WithContext(ctx).Slowf("discovery: expiry cache write %s/%d: %v", symbol, year, err)
		}
	}
	return dates, nil
}

// FilterExpiries parses raw expiries, drops malformed ones and those before
// cutoff, removes duplicate dates, sorts ascending and keeps at most limit.
func FilterExpiries(raw []RawExpiry, cutoff time.Time, limit int) []Expiry {
	seen := make(map[time.Time]struct{}, len(raw))
	out := make([]Expiry, 0, len(raw))
	for _, r := range raw {
		date, err := options.ParseDate(r.Raw)
		if err != nil {
			logx.Debugf("discovery: skipping malformed expiry %q: %v", r.Raw, err)
			continue
		}
		if date.Before(cutoff) {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		out = append(out, Expiry{Date: date, Raw: r.Raw, Year: r.Year})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SelectStrikes returns the distinct strikes in rows, restricted to
// [u*(1-band), u*(1+band)] when the underlying u is positive, ascending,
// at most limit of them.
func SelectStrikes(rows []nse.QuoteRow, underlying, band decimal.Decimal, limit int) []decimal.Decimal {
	var lo, hi decimal.Decimal
	banded := underlying.IsPositive()
	if banded {
		lo = underlying.Mul(decimal.NewFromInt(1).Sub(band))
		hi = underlying.Mul(decimal.NewFromInt(1).Add(band))
	}

	seen := make(map[string]struct{}, len(rows))
	strikes := make([]decimal.Decimal, 0, len(rows))
	for _, row := range rows {
		if !row.StrikePrice.Valid {
			continue
		}
		strike := row.StrikePrice.Decimal
		if banded && (strike.LessThan(lo) || strike.GreaterThan(hi)) {
			continue
		}
		key := strike.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		strikes = append(strikes, strike)
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].LessThan(strikes[j]) })
	if limit > 0 && len(strikes) > limit {
		strikes = strikes[:limit]
	}
	return strikes
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
