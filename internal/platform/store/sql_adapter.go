package store

import (
	"context"
	"time"

	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is what a pool and a pgx.Tx have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// traced is a RowQuerier over q that reports each statement to tracer
// slowUS below zero never flags a statement as slow
type traced struct {
	q      pgxQuerier
	tracer pg.QueryTracer
	slowUS int64
}

// observe returns the callback that reports one statement started now
func (t traced) observe(ctx context.Context, sql string, args []any) func(error) {
	if t.tracer == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		us := time.Since(start).Microseconds()
		t.tracer.OnQuery(ctx, pg.QueryEvent{
			SQL:       sql,
			Args:      args,
			ElapsedUS: us,
			Err:       err,
			Slow:      t.slowUS >= 0 && us >= t.slowUS,
		})
	}
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	done := t.observe(ctx, sql, args)
	ct, err := t.q.Exec(ctx, sql, args...)
	done(err)
	return ct, err
}

// Query is timed until the result set opens
func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	done := t.observe(ctx, sql, args)
	rs, err := t.q.Query(ctx, sql, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryRow is timed until Scan returns
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return scanHook{Row: t.q.QueryRow(ctx, sql, args...), done: t.observe(ctx, sql, args)}
}

type scanHook struct {
	Row
	done func(error)
}

func (h scanHook) Scan(dst ...any) error {
	err := h.Row.Scan(dst...)
	h.done(err)
	return err
}

// pgAdapter is the TxRunner over a pool
type pgAdapter struct {
	traced
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{traced: traced{q: p.Pool, tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000}, p: p}
}

// Ping round trips a SELECT 1
func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return perr.Unavailablef("pg: not opened")
	}
	_, err := Scalar[int](ctx, a, "SELECT 1")
	return err
}

func (a *pgAdapter) Close() error {
	a.p.Close()
	return nil
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	return runTx(ctx, tx, a.traced, fn)
}

// runTx commits when fn returns nil and rolls back otherwise
func runTx(ctx context.Context, tx pgx.Tx, base traced, fn func(q RowQuerier) error) error {
	base.q = tx
	if err := fn(base); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
