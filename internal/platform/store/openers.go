package store

import (
	"context"
	"time"

	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	chx "gitpulse/internal/platform/store/ch"
	"gitpulse/internal/platform/store/pg"
)

// startup ping loop defaults, the wait doubles from minWait up to maxWait
const (
	pingAttempts = 20
	pingTimeout  = 3 * time.Second
	minWait      = 150 * time.Millisecond
	maxWait      = 2 * time.Second
)

// openPG builds the pool then pings until postgres answers or attempts run out
func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "open postgres")
	}

	attempts := max(cfg.PG.ConnectRetries, 0)
	if attempts == 0 {
		attempts = pingAttempts
	}
	per := cfg.PG.PingTimeout
	if per <= 0 {
		per = pingTimeout
	}

	wait := minWait
	var lastErr error
	for n := 1; n <= attempts; n++ {
		if lastErr = ping(ctx, p, per); lastErr == nil {
			return newPGAdapter(p), nil
		}
		log.Debug().Err(lastErr).Int("attempt", n).Dur("wait", wait).Msg("postgres not ready")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			p.Close()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait = min(2*wait, maxWait)
	}
	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres unreachable after %d pings", attempts)
}

func ping(ctx context.Context, p *pg.PG, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return p.Pool.Ping(ctx)
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:         cfg.CH.URL,
		Role:        cfg.AppName,
		Tag:         cfg.CH.Tag,
		DialTimeout: cfg.CH.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
