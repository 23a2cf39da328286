package model

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ FetchLogModel = (*customFetchLogModel)(nil)

type (
	// FetchLogModel is an interface to be customized, add more methods here,
	// and implement the added methods in customFetchLogModel.
	FetchLogModel interface {
		fetchLogModel
		// FindRecent lists the newest entries first.
		FindRecent(ctx context.Context, limit int) ([]*FetchLog, error)
	}

	customFetchLogModel struct {
		*defaultFetchLogModel
	}
)

// NewFetchLogModel returns a model for the database table.
func NewFetchLogModel(conn sqlx.SqlConn) FetchLogModel {
	return &customFetchLogModel{
		defaultFetchLogModel: newFetchLogModel(conn),
	}
}

func (m *customFetchLogModel) FindRecent(ctx context.Context, limit int) ([]*FetchLog, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("select %s from %s order by run_timestamp desc, id desc limit $1", fetchLogRows, m.tableName())
	var resp []*FetchLog
	if err := m.conn.QueryRowsCtx(ctx, &resp, query, limit); err != nil {
		return nil, err
	}
	return resp, nil
}
