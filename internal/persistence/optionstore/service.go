package optionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"nseopt/internal/model"
	"nseopt/pkg/options"
)

// ErrStoreUnavailable wraps every storage failure; callers treat it as fatal.
var ErrStoreUnavailable = errors.New("optionstore: store unavailable")

// Service persists option quotes and the fetch audit log in Postgres.
type Service struct {
	sqlConn   sqlx.SqlConn
	quotes    model.OptionDataModel
	fetchLogs model.FetchLogModel
}

// NewService wires the store on top of a go-zero SQL connection.
func NewService(conn sqlx.SqlConn) *Service {
	return &Service{
		sqlConn:   conn,
		quotes:    model.NewOptionDataModel(conn),
		fetchLogs: model.NewFetchLogModel(conn),
	}
}

// Initialize creates tables and indexes when missing. Safe on every start.
func (s *Service) Initialize(ctx context.Context) error {
	db, err := s.sqlConn.RawDB()
	if err != nil {
		return unavailable("open", err)
	}
	if err := migrate(ctx, db); err != nil {
		return unavailable("migrate", err)
	}
	logx.WithContext(ctx).Info("optionstore: schema ready")
	return nil
}

// UpsertQuotes inserts records one statement at a time, skipping keys that
// already exist. It returns how many rows were new.
func (s *Service) UpsertQuotes(ctx context.Context, records []options.OptionQuoteRecord) (int64, error) {
	var inserted int64
	for i := range records {
		row := toRow(&records[i])
		ok, err := s.quotes.InsertIgnore(ctx, row)
		if err != nil {
			return inserted, unavailable(fmt.Sprintf("insert %s %s %s", row.Symbol, row.StrikePrice, row.OptionType), err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

// AppendLog records one symbol-level fetch attempt.
func (s *Service) AppendLog(ctx context.Context, entry options.FetchLogEntry) error {
	row := &model.FetchLog{
		RunTimestamp:   entry.RunTimestamp,
		RunType:        string(entry.RunType),
		Symbol:         entry.Symbol,
		Status:         string(entry.Status),
		RecordsFetched: int64(entry.RecordsFetched),
		ErrorMessage:   sql.NullString{String: entry.ErrorMessage, Valid: strings.TrimSpace(entry.ErrorMessage) != ""},
	}
	if _, err := s.fetchLogs.Insert(ctx, row); err != nil {
		return unavailable("append fetch log", err)
	}
	return nil
}

// Stats aggregates the quote table.
func (s *Service) Stats(ctx context.Context) (options.Stats, error) {
	summary, err := s.quotes.Summary(ctx)
	if err != nil {
		return options.Stats{}, unavailable("stats", err)
	}
	stats := options.Stats{
		TotalRecords:  summary.TotalRecords,
		UniqueSymbols: summary.UniqueSymbols,
	}
	if summary.MinTradeDate.Valid {
		stats.MinTradeDate = summary.MinTradeDate.Time
	}
	if summary.MaxTradeDate.Valid {
		stats.MaxTradeDate = summary.MaxTradeDate.Time
	}
	return stats, nil
}

// RecentLogs returns up to limit audit entries, newest first.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]options.FetchLogEntry, error) {
	rows, err := s.fetchLogs.FindRecent(ctx, limit)
	if err != nil {
		return nil, unavailable("recent logs", err)
	}
	out := make([]options.FetchLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, options.FetchLogEntry{
			RunTimestamp:   r.RunTimestamp,
			RunType:        options.RunType(r.RunType),
			Symbol:         r.Symbol,
			Status:         options.Status(r.Status),
			RecordsFetched: int(r.RecordsFetched),
			ErrorMessage:   r.ErrorMessage.String,
		})
	}
	return out, nil
}

func toRow(r *options.OptionQuoteRecord) *model.OptionData {
	return &model.OptionData{
		Symbol:          r.Symbol,
		ExpiryDate:      r.ExpiryDate,
		StrikePrice:     r.StrikePrice,
		OptionType:      string(r.OptionType),
		TradeDate:       r.TradeDate,
		OpenPrice:       r.Open,
		HighPrice:       r.High,
		LowPrice:        r.Low,
		ClosePrice:      r.Close,
		LastTradedPrice: r.LastTradedPrice,
		PrevClose:       r.PrevClose,
		SettlePrice:     r.SettlePrice,
		Volume:          r.Volume,
		Turnover:        r.Turnover,
		OpenInterest:    r.OpenInterest,
		ChangeInOi:      r.ChangeInOpenInterest,
		MarketLot:       r.MarketLot,
		UnderlyingValue: r.UnderlyingValue,
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// gooseLogger routes migration output through logx.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) { logx.Severef("goose: "+format, v...) }
func (gooseLogger) Printf(format string, v ...any) {
	logx.Infof("goose: "+strings.TrimSuffix(format, "\n"), v...)
}
