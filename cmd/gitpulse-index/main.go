package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitpulse/internal/modkit"
	"gitpulse/internal/modkit/repokit"
	"gitpulse/internal/platform/config"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/store"

	classifymod "gitpulse/internal/services/classify/module"
	indexingdom "gitpulse/internal/services/indexing/domain"
	indexingmod "gitpulse/internal/services/indexing/module"
)

func main() {
	var (
		fOwner      = flag.String("owner", "", "repository owner")
		fRepo       = flag.String("repo", "", "repository name, or owner/name when -owner is empty")
		fBatches    = flag.Int("batches", 1, "maximum windows to index, 0 runs until the floor or empty windows")
		fFloor      = flag.String("floor", "", "oldest UTC date to index YYYY-MM-DD")
		fReset      = flag.Bool("reset", false, "reset indexing progress and exit")
		fInfo       = flag.Bool("info", false, "print indexing progress and exit")
		fReclassify = flag.Bool("reclassify", false, "rerun the cascade over stored commits categorized as other")
		fLimit      = flag.Int("limit", 500, "maximum commits for -reclassify")
	)
	flag.Parse()

	l := logger.Get()

	ref, err := repoRef(*fOwner, *fRepo)
	if err != nil {
		l.Fatal().Err(err).Msg("bad -owner/-repo")
	}
	var floor time.Time
	if *fFloor != "" {
		floor, err = time.Parse(time.DateOnly, *fFloor)
		if err != nil {
			l.Fatal().Err(err).Msg("bad -floor")
		}
	}
	if *fBatches < 0 {
		l.Fatal().Int("batches", *fBatches).Msg("-batches must not be negative")
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	chURL := chCfg.MayString("DBURL", "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		AppName: "gitpulse-index",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:     chURL != "",
			URL:         chURL,
			Tag:         "index",
			DialTimeout: chCfg.MayDuration("DIAL_TIMEOUT", 5*time.Second),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}

	cm := classifymod.New(deps)
	im := indexingmod.New(deps, modkit.WithPorts(indexingdom.Ports{
		Classifier: modkit.MustPortsOf[classifymod.Ports](cm).Classifier,
	}))

	ports := modkit.MustPortsOf[indexingmod.Ports](im)
	if err := ports.Setup(ctx); err != nil {
		l.Fatal().Err(err).Msg("indexing schema setup failed")
	}
	runner := ports.Runner
	log := l.With().Str("repo", ref.FullName()).Logger()

	switch {
	case *fReset:
		if err := runner.Reset(ctx, ref); err != nil {
			log.Fatal().Err(err).Msg("reset failed")
		}
		log.Info().Msg("progress reset")

	case *fInfo:
		info, err := runner.Info(ctx, ref)
		if err != nil {
			log.Fatal().Err(err).Msg("info failed")
		}
		log.Info().
			Str("status", string(info.Progress.Status)).
			Int64("total_indexed", info.Progress.TotalIndexed).
			Int("retry_count", info.Progress.RetryCount).
			Str("error", info.Progress.ErrorMessage).
			Time("next_since", info.NextWindow.Since).
			Time("next_until", info.NextWindow.Until).
			Bool("can_run", info.CanRun).
			Str("skip_reason", info.SkipReason).
			Msg("progress")

	case *fReclassify:
		res, err := runner.ReclassifyOther(ctx, ref, *fLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("reclassify failed")
		}
		log.Info().Int("scanned", res.Scanned).Int("changed", res.Changed).Int("failed", res.Failed).Msg("reclassified")

	case *fBatches == 1 && floor.IsZero():
		res, err := runner.RunBatch(ctx, ref)
		if err != nil {
			log.Fatal().Err(err).Msg("batch failed")
		}
		log.Info().
			Str("status", string(res.Status)).
			Str("reason", res.Reason).
			Int("fetched", res.Fetched).
			Int("created", res.Created).
			Int("updated", res.Updated).
			Int("failed", res.Failed).
			Int64("total_indexed", res.TotalIndexed).
			Msg("batch done")

	default:
		sum, err := runner.RunUntil(ctx, ref, floor, *fBatches)
		if err != nil {
			log.Fatal().Err(err).Int("batches", sum.Batches).Msg("indexing stopped")
		}
		log.Info().
			Int("batches", sum.Batches).
			Int("created", sum.Created).
			Int("updated", sum.Updated).
			Int("failed", sum.Failed).
			Str("stop", sum.StopReason).
			Msg("indexing done")
	}
}

// repoRef accepts -owner x -repo y or -repo x/y
func repoRef(owner, repo string) (indexingdom.RepoRef, error) {
	if owner == "" {
		return indexingdom.ParseRepoRef(repo)
	}
	ref := indexingdom.RepoRef{Owner: owner, Name: repo}
	return ref, ref.Validate()
}
