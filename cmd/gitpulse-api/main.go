package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitpulse/internal/modkit/httpkit"
	"gitpulse/internal/modkit/repokit"
	"gitpulse/internal/platform/config"
	"gitpulse/internal/platform/logger"
	phttp "gitpulse/internal/platform/net/http"
	"gitpulse/internal/platform/store"

	"gitpulse/internal/services/api"
)

func main() {
	// service scoped config for HTTP (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	// postgres enables indexing, clickhouse enables analytics; classify needs neither
	pgURL := pgCfg.MayString("DBURL", "")
	chURL := chCfg.MayString("DBURL", "")

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "gitpulse-api",
			PG: store.PGConfig{
				Enabled:     pgURL != "",
				URL:         pgURL,
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled:     chURL != "",
				URL:         chURL,
				Tag:         "api",
				DialTimeout: chCfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(context.Background(), st)

	// http server (reads CORE_API_ADDR / CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	mounted := api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		ServiceName:    "gitpulse-api",
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		Indexing:       true,

		IndexingConcurrency: apiCfg.MayInt("INDEXING_CONCURRENCY", 4),
		Stack: httpkit.StackOptions{
			AllowedOrigins: apiCfg.MayCSV("CORS_ORIGINS", nil),
			SlowRequest:    apiCfg.MayDuration("SLOW_REQUEST", 2*time.Second),
			RequestTimeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 10*time.Minute),
		},
	})

	if mounted.Indexing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := mounted.Indexing.Setup(ctx)
		cancel()
		if err != nil {
			l.Panic().Err(err).Msg("indexing schema setup failed")
		}
	} else {
		l.Warn().Msg("SERVICE_PGSQL_DBURL not set, indexing routes disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info().Str("addr", srv.Addr()).Msg("gitpulse-api starting")
	if err := srv.Run(ctx); err != nil {
		l.Error().Err(err).Msg("http server stopped")
		return
	}
	l.Info().Msg("gitpulse-api stopped")
}
