package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"

	"nseopt/internal/svc"
)

// cronLogger routes cron's internal messages through logx.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logx.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logx.Errorf("cron: %s %v: %v", msg, keysAndValues, err)
}

// newScheduler registers the daily job and, when configured, the historical
// job. Overlapping triggers are skipped while a run is in progress.
func newScheduler(ctx context.Context, svcCtx *svc.ServiceContext, symbols []string) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	fc := svcCtx.Config.Fetch
	if _, err := c.AddFunc(fc.DailyCron, func() {
		if err := runDaily(ctx, svcCtx, symbols); err != nil {
			logx.Errorf("scheduled daily run: %v", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("daily schedule %q: %w", fc.DailyCron, err)
	}
	if spec := strings.TrimSpace(fc.HistoricalCron); spec != "" {
		if _, err := c.AddFunc(spec, func() {
			if err := runHistorical(ctx, svcCtx, symbols, 0); err != nil {
				logx.Errorf("scheduled historical run: %v", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("historical schedule %q: %w", spec, err)
		}
	}
	return c, nil
}

func runSchedule(ctx context.Context, svcCtx *svc.ServiceContext, symbols []string) error {
	c, err := newScheduler(ctx, svcCtx, symbols)
	if err != nil {
		return err
	}
	c.Start()
	for _, e := range c.Entries() {
		logx.Infof("next scheduled run at %s", e.Next.Format("2006-01-02 15:04:05 MST"))
	}
	<-ctx.Done()
	logx.Info("shutting down scheduler, waiting for running jobs")
	<-c.Stop().Done()
	return nil
}
