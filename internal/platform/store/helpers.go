package store

import (
	"context"

	perr "gitpulse/internal/platform/errors"
)

// each hands every row of sql to fn and closes the result set
func each(ctx context.Context, q RowQuerier, sql string, args []any, fn func(Row) error) error {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Scalar scans the single column of the first row into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		return *new(T), err
	}
	return v, nil
}

// One maps exactly one row, none is perr.ErrNotFound and more than one is a db error
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var (
		out T
		n   int
	)
	err := each(ctx, q, sql, args, func(r Row) error {
		n++
		if n > 1 {
			return perr.DBf("expected one row, got more")
		}
		v, err := scan(r)
		out = v
		return err
	})
	switch {
	case err != nil:
		return *new(T), err
	case n == 0:
		return out, perr.ErrNotFound
	}
	return out, nil
}

// Many maps every row, an empty result is a nil slice
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	var out []T
	err := each(ctx, q, sql, args, func(r Row) error {
		v, err := scan(r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
