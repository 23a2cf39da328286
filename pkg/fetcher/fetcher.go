package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/pkg/discovery"
	"nseopt/pkg/journal"
	"nseopt/pkg/nse"
	"nseopt/pkg/options"
)

const (
	DefaultStrikeDelay           = 500 * time.Millisecond
	DefaultExpiryDelay           = 2 * time.Second
	DefaultHistoricalSymbolDelay = 5 * time.Second
	DefaultDailySymbolDelay      = 3 * time.Second
	DefaultDailyLookbackDays     = 2
)

// Source fetches one slice of quote rows.
type Source interface {
	Quotes(ctx context.Context, q nse.QuoteQuery) ([]nse.QuoteRow, error)
}

// Planner produces the per-symbol fetch plan.
type Planner interface {
	Discover(ctx context.Context, symbol string, lookbackDays int) (discovery.Plan, error)
}

// Store persists quotes and audit entries.
type Store interface {
	UpsertQuotes(ctx context.Context, records []options.OptionQuoteRecord) (int64, error)
	AppendLog(ctx context.Context, entry options.FetchLogEntry) error
	Stats(ctx context.Context) (options.Stats, error)
}

// Reporter receives a record of every completed batch.
type Reporter interface {
	WriteRun(rec *journal.RunRecord) (string, error)
}

// Config holds the pacing of a run. Zero durations disable the pause.
type Config struct {
	StrikeDelay           time.Duration
	ExpiryDelay           time.Duration
	HistoricalSymbolDelay time.Duration
	DailySymbolDelay      time.Duration
	DailyLookbackDays     int
}

// DefaultConfig returns the production pacing.
func DefaultConfig() Config {
	return Config{
		StrikeDelay:           DefaultStrikeDelay,
		ExpiryDelay:           DefaultExpiryDelay,
		HistoricalSymbolDelay: DefaultHistoricalSymbolDelay,
		DailySymbolDelay:      DefaultDailySymbolDelay,
		DailyLookbackDays:     DefaultDailyLookbackDays,
	}
}

// Fetcher drives discovery, fetching and storage for symbols, one at a time.
type Fetcher struct {
	cfg      Config
	source   Source
	planner  Planner
	store    Store
	reporter Reporter
	now      func() time.Time
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithReporter writes a journal record after each batch.
func WithReporter(r Reporter) Option {
	return func(f *Fetcher) {
		f.reporter = r
	}
}

// WithClock replaces time.Now for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		if now != nil {
			f.now = now
		}
	}
}

// New wires a Fetcher.
func New(cfg Config, source Source, planner Planner, store Store, opts ...Option) *Fetcher {
	if cfg.DailyLookbackDays <= 0 {
		cfg.DailyLookbackDays = DefaultDailyLookbackDays
	}
	f := &Fetcher{
		cfg:     cfg,
		source:  source,
		planner: planner,
		store:   store,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchHistorical fetches and stores every planned slice for symbol within
// the lookback, then writes one audit entry. Upstream and storage failures
// are recorded as an ERROR entry and reported as zero records; the returned
// error is non-nil only when the audit entry could not be written or ctx
// was cancelled.
func (f *Fetcher) FetchHistorical(ctx context.Context, symbol string, lookbackDays int) (int, error) {
	outcome, err := f.fetchSymbol(ctx, symbol, lookbackDays, options.RunHistorical)
	return outcome.Records, err
}

// FetchDaily is FetchHistorical with the short daily lookback, audited as DAILY.
func (f *Fetcher) FetchDaily(ctx context.Context, symbol string) (int, error) {
	outcome, err := f.fetchSymbol(ctx, symbol, f.cfg.DailyLookbackDays, options.RunDaily)
	return outcome.Records, err
}

func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string, lookbackDays int, runType options.RunType) (Result, error) {
	job := &symbolJob{symbol: symbol, runType: runType, state: stateDiscovering}
	job.logState(ctx)
	startedAt := f.now()

	records, status, fetchErr := f.collect(ctx, job, lookbackDays)
	result := Result{Symbol: symbol, Records: records, Status: status}
	entry := options.FetchLogEntry{
		RunTimestamp:   startedAt,
		RunType:        runType,
		Symbol:         symbol,
		Status:         status,
		RecordsFetched: records,
	}
	if fetchErr != nil {
		job.fail(ctx, fetchErr)
		result = Result{Symbol: symbol, Status: options.StatusError, Error: fetchErr.Error()}
		entry.Status = options.StatusError
		entry.RecordsFetched = 0
		entry.ErrorMessage = fetchErr.Error()
		logx.WithContext(ctx).Errorw("fetch failed",
			logx.Field("symbol", symbol),
			logx.Field("run_type", string(runType)),
			logx.Field("error", fetchErr.Error()))
	} else {
		job.advance(ctx, stateLogging)
	}

	// The audit entry is written even when ctx is already cancelled.
	if err := f.store.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		return result, fmt.Errorf("append fetch log for %s: %w", symbol, err)
	}
	if fetchErr == nil {
		job.advance(ctx, stateDone)
		logx.WithContext(ctx).Infof("fetcher: %s %s %s, %d records", runType, symbol, status, records)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, nil
}

// collect runs discovery and the fetch loop. It returns the number of
// normalized records and the status to audit on success.
func (f *Fetcher) collect(ctx context.Context, job *symbolJob, lookbackDays int) (int, options.Status, error) {
	plan, err := f.planner.Discover(ctx, job.symbol, lookbackDays)
	if err != nil {
		return 0, options.StatusError, fmt.Errorf("discover: %w", err)
	}
	if plan.Empty() {
		if plan.NoExpiries {
			logx.WithContext(ctx).Infof("fetcher: no expiries found for %s", job.symbol)
		}
		return 0, options.StatusNoData, nil
	}

	job.advance(ctx, stateFetching)
	total := 0
	for _, exp := range plan.Expiries {
		logx.WithContext(ctx).Infof("fetcher: %s expiry %s, %d strikes, %s to %s",
			job.symbol, exp.ExpiryRaw, len(exp.Strikes), options.FormatDate(exp.From), options.FormatDate(exp.To))
		for _, strike := range exp.Strikes {
			for _, optType := range options.OptionTypes {
				n, err := f.fetchSlice(ctx, job, exp, strike.String(), optType)
				if err != nil {
					return total, options.StatusError, err
				}
				total += n
				if err := sleepWithContext(ctx, f.cfg.StrikeDelay); err != nil {
					return total, options.StatusError, err
				}
			}
		}
		if err := sleepWithContext(ctx, f.cfg.ExpiryDelay); err != nil {
			return total, options.StatusError, err
		}
	}
	return total, options.StatusSuccess, nil
}

func (f *Fetcher) fetchSlice(ctx context.Context, job *symbolJob, exp discovery.ExpiryPlan, strike string, optType options.OptionType) (int, error) {
	rows, err := f.source.Quotes(ctx, nse.QuoteQuery{
		Symbol:     job.symbol,
		Year:       exp.Year,
		Expiry:     exp.ExpiryRaw,
		OptionType: optType.WireCode(),
		Strike:     strike,
		From:       exp.From,
		To:         exp.To,
	})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	records, skipped := options.Normalize(options.PageContext{
		Symbol:     job.symbol,
		Expiry:     exp.Expiry,
		OptionType: optType,
	}, rows)
	for _, s := range skipped {
		logx.WithContext(ctx).Debugf("fetcher: %s %s %s %s skipped %v", job.symbol, exp.ExpiryRaw, strike, optType, s)
	}
	if len(records) == 0 {
		return 0, nil
	}

	job.advance(ctx, stateStoring)
	inserted, err := f.store.UpsertQuotes(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("store %s %s %s: %w", exp.ExpiryRaw, strike, optType, err)
	}
	job.advance(ctx, stateFetching)
	logx.WithContext(ctx).Debugf("fetcher: %s %s %s %s, %d rows, %d new", job.symbol, exp.ExpiryRaw, strike, optType, len(records), inserted)
	return len(records), nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
