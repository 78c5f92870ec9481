package repokit

import (
	"context"
	"strconv"
	"time"
)

// BeginHook runs first inside every transaction with the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps a TxRunner so hooks run before fn in the same tx
// nil hooks are dropped and statements outside Tx pass straight through
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	var set []BeginHook
	for _, hk := range hooks {
		if hk != nil {
			set = append(set, hk)
		}
	}
	if len(set) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: set}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// StatementTimeout sets a transaction local postgres statement_timeout
// d <= 0 returns nil so callers can pass it unconditionally
func StatementTimeout(d time.Duration) BeginHook {
	if d <= 0 {
		return nil
	}
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	return func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, `SELECT set_config('statement_timeout', $1, true)`, ms)
		return err
	}
}
