package store

import (
	"context"

	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/store/ch"
)

// chSeam exposes *ch.CH as Clickhouse, Exec Ping and Close are promoted
type chSeam struct{ *ch.CH }

var (
	_ Clickhouse = chSeam{}
	_ Pinger     = chSeam{}
)

func newCHAdapter(c *ch.CH) Clickhouse { return chSeam{c} }

// Insert takes rows as [][]any in table column order
func (s chSeam) Insert(ctx context.Context, table string, data any) error {
	switch rows := data.(type) {
	case nil:
		return nil
	case [][]any:
		return s.CH.Insert(ctx, table, rows)
	default:
		return perr.InvalidArgf("store: clickhouse insert wants [][]any, got %T", data)
	}
}

func (s chSeam) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := s.CH.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

// chRows drops the close error store.Rows does not carry
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
