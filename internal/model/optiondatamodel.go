package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ OptionDataModel = (*customOptionDataModel)(nil)

type (
	// OptionDataModel is an interface to be customized, add more methods here,
	// and implement the added methods in customOptionDataModel.
	OptionDataModel interface {
		optionDataModel
		// InsertIgnore inserts data unless its natural key already exists.
		InsertIgnore(ctx context.Context, data *OptionData) (bool, error)
		Summary(ctx context.Context) (*OptionDataSummary, error)
	}

	customOptionDataModel struct {
		*defaultOptionDataModel
	}

	// OptionDataSummary is the table-wide aggregate.
	OptionDataSummary struct {
		TotalRecords  int64        `db:"total_records"`
		UniqueSymbols int64        `db:"unique_symbols"`
		MinTradeDate  sql.NullTime `db:"min_trade_date"`
		MaxTradeDate  sql.NullTime `db:"max_trade_date"`
	}
)

// NewOptionDataModel returns a model for the database table.
func NewOptionDataModel(conn sqlx.SqlConn) OptionDataModel {
	return &customOptionDataModel{
		defaultOptionDataModel: newOptionDataModel(conn),
	}
}

func (m *customOptionDataModel) InsertIgnore(ctx context.Context, data *OptionData) (bool, error) {
	query := fmt.Sprintf(`insert into %s (%s) values (%s)
on conflict (symbol, expiry_date, strike_price, option_type, trade_date) do nothing`,
		m.tableName(), optionDataRowsExpectAutoSet, optionDataInsertPlaceholders)
	res, err := m.conn.ExecCtx(ctx, query, data.insertArgs()...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *customOptionDataModel) Summary(ctx context.Context) (*OptionDataSummary, error) {
	query := fmt.Sprintf(`select count(*) as total_records,
       count(distinct symbol) as unique_symbols,
       min(trade_date) as min_trade_date,
       max(trade_date) as max_trade_date
from %s`, m.tableName())
	var resp OptionDataSummary
	if err := m.conn.QueryRowCtx(ctx, &resp, query); err != nil {
		return nil, err
	}
	return &resp, nil
}
