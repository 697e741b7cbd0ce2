package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// fakeSQL satisfies infra.SQLExecutor for handlers backed by inline queries.
type fakeSQL struct {
	row  func(query string, args ...any) pgx.Row
	rows func(query string, args ...any) (pgx.Rows, error)
}

func (f fakeSQL) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if f.row == nil {
		return NewSimpleRow(nil)
	}
	return f.row(query, args...)
}

func (f fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if f.rows == nil {
		return nil, pgx.ErrNoRows
	}
	return f.rows(query, args...)
}

type stubRows struct {
	TestRowsBase
	rows [][]any
	idx  int
}

func (r *stubRows) Close()     {}
func (r *stubRows) Err() error { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan arity mismatch: %d != %d", len(dest), len(row))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *decimal.Decimal:
			*d = v.(decimal.Decimal)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("unsupported scan destination %T", dest[i])
		}
	}
	return nil
}
