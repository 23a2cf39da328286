package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/internal/cli"
	"nseopt/internal/config"
	"nseopt/internal/persistence/optionstore"
	"nseopt/internal/svc"
	"nseopt/pkg/confkit"
	"nseopt/pkg/fetcher"
)

const (
	modeHistorical = "historical"
	modeDaily      = "daily"
	modeSchedule   = "schedule"
	modeStats      = "stats"
	modeInit       = "init"
)

func main() {
	var (
		configFile = flag.String("f", "etc/fetcher.yaml", "the config file")
		mode       = flag.String("mode", modeDaily, "historical | daily | schedule | stats | init")
		symbolsRaw = flag.String("symbols", "", "comma-separated symbols; overrides configuration")
		days       = flag.Int("days", 0, "historical lookback in days; overrides configuration")
		logLimit   = flag.Int("logs", 20, "number of recent fetch log entries shown in stats mode")
	)
	flag.Parse()

	confkit.LoadDotenvOnce()
	cfg, err := config.Load(*configFile)
	if err != nil {
		fatalf("load config: %v", err)
	}
	cfg.MustSetUp()
	logx.DisableStat()
	cli.LogConfigSummary(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx, err := svc.NewServiceContext(*cfg)
	if err != nil {
		fatalf("build service context: %v", err)
	}
	defer func() {
		_ = svcCtx.Close()
	}()

	if err := svcCtx.Store.Initialize(ctx); err != nil {
		fatalf("initialise store: %v", err)
	}

	symbols := parseSymbols(*symbolsRaw)
	switch strings.ToLower(strings.TrimSpace(*mode)) {
	case modeInit:
		logx.Info("store initialised")
	case modeStats:
		err = printStats(ctx, svcCtx.Store, *logLimit)
	case modeHistorical:
		err = runHistorical(ctx, svcCtx, symbols, *days)
	case modeDaily:
		err = runDaily(ctx, svcCtx, symbols)
	case modeSchedule:
		err = runSchedule(ctx, svcCtx, symbols)
	default:
		fatalf("unknown mode %q", *mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fatalf("%s: %v", *mode, err)
	}
}

func runHistorical(ctx context.Context, svcCtx *svc.ServiceContext, symbols []string, days int) error {
	targets, lookback, err := svcCtx.Config.Fetch.HistoricalTargets(symbols, days)
	if err != nil {
		return err
	}
	if err := svcCtx.Client.Open(ctx); err != nil {
		return fmt.Errorf("open nse session: %w", err)
	}
	summary, err := svcCtx.Fetcher.RunHistorical(ctx, targets, lookback)
	logSummary(summary)
	return err
}

func runDaily(ctx context.Context, svcCtx *svc.ServiceContext, symbols []string) error {
	targets := svcCtx.Config.Fetch.DailyTargets(symbols)
	if err := svcCtx.Client.Open(ctx); err != nil {
		return fmt.Errorf("open nse session: %w", err)
	}
	summary, err := svcCtx.Fetcher.RunDaily(ctx, targets)
	logSummary(summary)
	return err
}

func logSummary(summary fetcher.RunSummary) {
	failed := 0
	for _, r := range summary.Results {
		switch {
		case r.Skipped:
			failed++
			logx.Infof("  %-12s skipped", r.Symbol)
		case r.Error != "":
			failed++
			logx.Infof("  %-12s %s: %s", r.Symbol, r.Status, r.Error)
		default:
			logx.Infof("  %-12s %s %d records", r.Symbol, r.Status, r.Records)
		}
	}
	logx.Infof("%s run finished in %s: %d symbols, %d not fetched, %d records fetched",
		summary.RunType, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond), len(summary.Results), failed, summary.TotalFetched())
}

func printStats(ctx context.Context, store *optionstore.Service, limit int) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Total records:  %d\n", stats.TotalRecords)
	fmt.Printf("Unique symbols: %d\n", stats.UniqueSymbols)
	fmt.Printf("Date range:     %s\n", stats.DateRange())
	if limit <= 0 {
		return nil
	}
	entries, err := store.RecentLogs(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Printf("\nRecent fetches (%d):\n", len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-10s %-12s %-7s %6d", e.RunTimestamp.Format("2006-01-02 15:04:05"), e.RunType, e.Symbol, e.Status, e.RecordsFetched)
		if e.ErrorMessage != "" {
			line += "  " + e.ErrorMessage
		}
		fmt.Println(line)
	}
	return nil
}

func parseSymbols(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToUpper(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		if _, exists := seen[field]; exists {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	logx.Close()
	os.Exit(1)
}
