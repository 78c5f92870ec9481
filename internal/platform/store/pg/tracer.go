package pg

import (
	"context"
	"strings"

	"gitpulse/internal/platform/logger"

	"github.com/rs/zerolog"
)

// maxArgLen caps string args in trace lines
const maxArgLen = 120

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// QueryTracerFunc adapts a function to QueryTracer
type QueryTracerFunc func(ctx context.Context, ev QueryEvent)

func (f QueryTracerFunc) OnQuery(ctx context.Context, ev QueryEvent) { f(ctx, ev) }

// Tracer writes one line per statement to root regardless of its level
// failed statements log at error, slow ones at warn, the rest at info
func Tracer(root logger.Logger) QueryTracer {
	log := root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return QueryTracerFunc(func(_ context.Context, ev QueryEvent) {
		lvl := zerolog.InfoLevel
		switch {
		case ev.Err != nil:
			lvl = zerolog.ErrorLevel
		case ev.Slow:
			lvl = zerolog.WarnLevel
		}
		log.WithLevel(lvl).
			Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
			Bool("slow", ev.Slow).
			Str("sql", compact(ev.SQL)).
			Interface("args", clip(ev.Args)).
			Err(ev.Err).
			Msg("pg query")
	})
}

// compact puts a statement on one line
func compact(sql string) string { return strings.Join(strings.Fields(sql), " ") }

// clip shortens long string args, other values pass through
func clip(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, 0, len(args))
	for _, a := range args {
		if s, ok := a.(string); ok && len(s) > maxArgLen {
			a = s[:maxArgLen] + "..."
		}
		out = append(out, a)
	}
	return out
}
