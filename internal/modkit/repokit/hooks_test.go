package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitpulse/internal/platform/store"
)

type execCall struct {
	sql  string
	args []any
}

// recQ records Exec calls
type recQ struct {
	execs []execCall
	err   error
}

func (q *recQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	q.execs = append(q.execs, execCall{sql: sql, args: args})
	return nil, q.err
}
func (q *recQ) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (q *recQ) QueryRow(context.Context, string, ...any) store.Row        { return nil }

// recTx runs fn against its recQ
type recTx struct {
	recQ
	txs int
}

func (t *recTx) Tx(_ context.Context, fn func(Queryer) error) error {
	t.txs++
	return fn(&t.recQ)
}

func TestBindFunc(t *testing.T) {
	t.Parallel()

	q := &recQ{}
	b := BindFunc[Queryer](func(in Queryer) Queryer { return in })
	if got := b.Bind(q); got != q {
		t.Fatalf("Bind did not pass the queryer through")
	}
}

func TestWithBeginHooks_NoHooksReturnsInner(t *testing.T) {
	t.Parallel()

	inner := &recTx{}
	if got := WithBeginHooks(inner); got != inner {
		t.Fatalf("expected inner runner back")
	}
	if got := WithBeginHooks(inner, nil, StatementTimeout(0)); got != inner {
		t.Fatalf("nil hooks should be dropped")
	}
}

func TestWithBeginHooks_RunsBeforeFn(t *testing.T) {
	t.Parallel()

	inner := &recTx{}
	var order []string
	tx := WithBeginHooks(inner,
		func(context.Context, Queryer) error { order = append(order, "a"); return nil },
		func(context.Context, Queryer) error { order = append(order, "b"); return nil },
	)

	err := tx.Tx(context.Background(), func(Queryer) error {
		order = append(order, "fn")
		return nil
	})
	if err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "fn" {
		t.Fatalf("order = %v", order)
	}
	if inner.txs != 1 {
		t.Fatalf("inner txs = %d", inner.txs)
	}
}

func TestWithBeginHooks_HookErrorSkipsFn(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tx := WithBeginHooks(&recTx{}, func(context.Context, Queryer) error { return boom })

	ran := false
	err := tx.Tx(context.Background(), func(Queryer) error { ran = true; return nil })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if ran {
		t.Fatalf("fn ran after a failing hook")
	}
}

func TestWithBeginHooks_ExecOutsideTxPassesThrough(t *testing.T) {
	t.Parallel()

	inner := &recTx{}
	tx := WithBeginHooks(inner, StatementTimeout(time.Second))
	if _, err := tx.Exec(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(inner.execs) != 1 || inner.execs[0].sql != "SELECT 1" {
		t.Fatalf("execs = %+v", inner.execs)
	}
}

func TestStatementTimeout_SetsLocalMillis(t *testing.T) {
	t.Parallel()

	inner := &recTx{}
	tx := WithBeginHooks(inner, StatementTimeout(1500*time.Millisecond))
	if err := tx.Tx(context.Background(), func(Queryer) error { return nil }); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if len(inner.execs) != 1 {
		t.Fatalf("execs = %+v", inner.execs)
	}
	got := inner.execs[0]
	if got.sql != `SELECT set_config('statement_timeout', $1, true)` {
		t.Fatalf("sql = %q", got.sql)
	}
	if len(got.args) != 1 || got.args[0] != "1500" {
		t.Fatalf("args = %v", got.args)
	}
}
