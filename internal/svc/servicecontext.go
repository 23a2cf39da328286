package svc

import (
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/shopspring/decimal"
	zcache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "nseopt/internal/cache"
	"nseopt/internal/config"
	"nseopt/internal/persistence/optionstore"
	"nseopt/pkg/discovery"
	"nseopt/pkg/fetcher"
	"nseopt/pkg/journal"
	"nseopt/pkg/nse"
)

// ErrNoDatabase is returned when no Postgres DSN is configured.
var ErrNoDatabase = errors.New("svc: postgres dsn is not configured")

type ServiceContext struct {
	Config config.Config

	DBConn   sqlx.SqlConn
	Store    *optionstore.Service
	Client   *nse.Client
	Expiries *cachekeys.ExpiryStore
	Planner  *discovery.Discoverer
	Journal  *journal.Writer
	Fetcher  *fetcher.Fetcher
}

func MustNewServiceContext(c config.Config) *ServiceContext {
	svc, err := NewServiceContext(c)
	if err != nil {
		panic(err)
	}
	return svc
}

// NewServiceContext wires every collaborator from config. The NSE client is
// returned closed; callers Open it before a run.
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return nil, ErrNoDatabase
	}
	conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	if db, err := conn.RawDB(); err == nil {
		db.SetMaxOpenConns(c.Postgres.MaxOpen)
		db.SetMaxIdleConns(c.Postgres.MaxIdle)
	}

	svc := &ServiceContext{
		Config: c,
		DBConn: conn,
		Store:  optionstore.NewService(conn),
		Client: nse.NewClient(c.NSEConfig()),
	}

	ttl := cachekeys.NewTTLSet(c.TTL)
	if strings.TrimSpace(c.Redis.Host) != "" {
		svc.Expiries = cachekeys.NewRedisExpiryStore(zcache.CacheConf{{RedisConf: c.Redis, Weight: 100}}, ttl)
	} else {
		mem, err := cachekeys.NewMemoryExpiryStore(ttl)
		if err != nil {
			return nil, fmt.Errorf("svc: expiry cache: %w", err)
		}
		svc.Expiries = mem
	}

	fc := c.Fetch
	svc.Planner = discovery.New(discovery.Config{
		Years:       fc.Years,
		MaxExpiries: fc.MaxExpiries,
		MaxStrikes:  fc.MaxStrikes,
		StrikeBand:  decimal.NewFromFloat(fc.StrikeBand),
		WindowDays:  fc.WindowDays,
	}, svc.Client, discovery.WithCache(svc.Expiries))

	var opts []fetcher.Option
	if strings.TrimSpace(fc.JournalDir) != "" {
		svc.Journal = journal.NewWriter(fc.JournalDir)
		opts = append(opts, fetcher.WithReporter(svc.Journal))
	}
	svc.Fetcher = fetcher.New(fetcher.Config{
		StrikeDelay:           fc.StrikeDelay(),
		ExpiryDelay:           fc.ExpiryDelay(),
		HistoricalSymbolDelay: fc.HistoricalSymbolDelay(),
		DailySymbolDelay:      fc.DailySymbolDelay(),
		DailyLookbackDays:     fc.DailyDays,
	}, svc.Client, svc.Planner, svc.Store, opts...)
	return svc, nil
}

// Close releases the upstream session.
func (s *ServiceContext) Close() error {
	return s.Client.Close()
}
