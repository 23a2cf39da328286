package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/pkg/journal"
	"nseopt/pkg/options"
)

// Result is the outcome of one symbol within a batch.
type Result struct {
	Symbol  string
	Records int
	Status  options.Status
	Error   string
	// Skipped marks symbols never attempted because the batch stopped early.
	Skipped bool
}

// RunSummary is returned by a batch run.
type RunSummary struct {
	RunType      options.RunType
	LookbackDays int
	StartedAt    time.Time
	FinishedAt   time.Time
	Results      []Result
	Stats        options.Stats
}

// TotalFetched sums the records fetched across symbols.
func (s RunSummary) TotalFetched() int {
	total := 0
	for _, r := range s.Results {
		total += r.Records
	}
	return total
}

// RunHistorical fetches each symbol in order with the historical lookback.
func (f *Fetcher) RunHistorical(ctx context.Context, symbols []string, lookbackDays int) (RunSummary, error) {
	return f.runBatch(ctx, options.RunHistorical, symbols, lookbackDays, f.cfg.HistoricalSymbolDelay)
}

// RunDaily fetches each symbol in order with the daily lookback.
func (f *Fetcher) RunDaily(ctx context.Context, symbols []string) (RunSummary, error) {
	return f.runBatch(ctx, options.RunDaily, symbols, f.cfg.DailyLookbackDays, f.cfg.DailySymbolDelay)
}

// runBatch processes symbols sequentially. A failing symbol never stops the
// batch; only an unwritable audit log or cancellation does. Results always
// has one entry per input symbol.
func (f *Fetcher) runBatch(ctx context.Context, runType options.RunType, symbols []string, lookbackDays int, pause time.Duration) (RunSummary, error) {
	summary := RunSummary{
		RunType:      runType,
		LookbackDays: lookbackDays,
		StartedAt:    f.now(),
		Results:      make([]Result, 0, len(symbols)),
	}
	logx.WithContext(ctx).Infof("fetcher: starting %s run for %d symbols, lookback %d days", runType, len(symbols), lookbackDays)

	var runErr error
	for i, symbol := range symbols {
		logx.WithContext(ctx).Infof("fetcher: [%d/%d] %s", i+1, len(symbols), symbol)
		result, err := f.fetchSymbol(ctx, symbol, lookbackDays, runType)
		summary.Results = append(summary.Results, result)
		if err != nil {
			runErr = err
			break
		}
		if i < len(symbols)-1 {
			if err := sleepWithContext(ctx, pause); err != nil {
				runErr = err
				break
			}
		}
	}
	for _, symbol := range symbols[len(summary.Results):] {
		summary.Results = append(summary.Results, Result{Symbol: symbol, Skipped: true})
	}

	if runErr == nil {
		stats, err := f.store.Stats(ctx)
		if err != nil {
			runErr = fmt.Errorf("read stats: %w", err)
		} else {
			summary.Stats = stats
			logx.WithContext(ctx).Infof("fetcher: Fetch complete! Total records: %d, symbols: %d, date range: %s",
				stats.TotalRecords, stats.UniqueSymbols, stats.DateRange())
		}
	}
	summary.FinishedAt = f.now()
	f.report(ctx, summary, runErr)
	return summary, runErr
}

func (f *Fetcher) report(ctx context.Context, summary RunSummary, runErr error) {
	if f.reporter == nil {
		return
	}
	rec := &journal.RunRecord{
		Timestamp:          summary.StartedAt,
		RunType:            string(summary.RunType),
		LookbackDays:       summary.LookbackDays,
		FinishedAt:         summary.FinishedAt,
		TotalFetched:       summary.TotalFetched(),
		StoreTotalRecords:  summary.Stats.TotalRecords,
		StoreUniqueSymbols: summary.Stats.UniqueSymbols,
		StoreDateRange:     summary.Stats.DateRange(),
		Success:            runErr == nil,
	}
	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}
	for _, r := range summary.Results {
		status := string(r.Status)
		if r.Skipped {
			status = "SKIPPED"
		}
		rec.Symbols = append(rec.Symbols, journal.SymbolRecord{
			Symbol:         r.Symbol,
			Status:         status,
			RecordsFetched: r.Records,
			ErrorMessage:   r.Error,
		})
	}
	path, err := f.reporter.WriteRun(rec)
	if err != nil {
		logx.WithContext(ctx).Slowf("fetcher: write run journal: %v", err)
		return
	}
	logx.WithContext(ctx).Infof("fetcher: run journal written to %s", path)
}
