// Package service implements the resumable commit indexing orchestrator
package service

import (
	"context"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	"gitpulse/internal/modkit/repokit"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"
	"gitpulse/internal/services/indexing/guardrails"

	"github.com/google/uuid"
)

// skip reasons reported in BatchResult.Reason
const (
	ReasonRunning    = "already running"
	ReasonTooSoon    = "too soon since last run"
	ReasonMaxRetries = "max retries exceeded"
	ReasonFloor      = "floor reached"
)

const day = 24 * time.Hour

// Config holds configuration options for the orchestrator
type Config struct {
	EntityType string // "" -> commits
	BatchDays  int    // window width in days; <=0 -> 30

	MinInterval time.Duration // minimum gap between scheduled runs
	MaxRetries  int           // failed runs allowed before ShouldIndex refuses; <=0 -> 3
	StaleAfter  time.Duration // a running claim older than this is abandoned; <=0 -> 1h

	EmptyStop int           // consecutive empty windows that end RunUntil; <=0 -> 3
	Delay     time.Duration // optional pause between RunUntil batches

	// Token is the github token passed to the fetcher, empty uses the client rotation
	Token string

	Timeouts guardrails.Timeouts
}

// Option customizes a Service
type Option func(*Service)

// WithSink sends classified rows to an analytics sink
func WithSink(s domain.AnalyticsSink) Option { return func(svc *Service) { svc.Sink = s } }

// WithStats reads category counts from the analytics store
func WithStats(r domain.StatsReader) Option { return func(svc *Service) { svc.Stats = r } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(svc *Service) { svc.now = now } }

// Service drives fetch, classify and persist one window at a time
type Service struct {
	DB       repokit.TxRunner
	Binder   repokit.Binder[domain.StorageRepo]
	Fetch    domain.Fetcher
	Classify domain.Classifier
	Sink     domain.AnalyticsSink
	Stats    domain.StatsReader
	Cfg      Config

	now   func() time.Time
	runID func() string
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs the orchestrator
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	f domain.Fetcher,
	c domain.Classifier,
	cfg Config,
	opts ...Option,
) *Service {
	if db == nil {
		panic("indexing.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("indexing.Service requires a non nil Repo binder")
	}
	if f == nil || c == nil {
		panic("indexing.Service requires a fetcher and a classifier")
	}
	if cfg.EntityType == "" {
		cfg.EntityType = domain.EntityCommits
	}
	if cfg.BatchDays <= 0 {
		cfg.BatchDays = 30
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Hour
	}
	if cfg.EmptyStop <= 0 {
		cfg.EmptyStop = 3
	}
	s := &Service{
		DB: db, Binder: binder,
		Fetch: f, Classify: c,
		Cfg:   cfg,
		now:   time.Now,
		runID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ShouldIndex reports whether a new run may start for p at now
func (s *Service) ShouldIndex(p domain.Progress, now time.Time) (bool, string) {
	return s.shouldIndex(p, now, false)
}

func (s *Service) shouldIndex(p domain.Progress, now time.Time, continuing bool) (bool, string) {
	if p.Status == domain.StatusRunning && !s.stale(p, now) {
		return false, ReasonRunning
	}
	if !continuing && p.LastRunAt != nil && now.Sub(*p.LastRunAt) < s.Cfg.MinInterval {
		return false, ReasonTooSoon
	}
	if p.Status == domain.StatusFailed && p.RetryCount >= s.Cfg.MaxRetries {
		return false, ReasonMaxRetries
	}
	return true, ""
}

func (s *Service) stale(p domain.Progress, now time.Time) bool {
	return p.LastRunAt == nil || now.Sub(*p.LastRunAt) > s.Cfg.StaleAfter
}

// NextWindow returns the window the next batch covers
// the first run ends at now, later runs continue backward from last_indexed_at
func (s *Service) NextWindow(p domain.Progress, now time.Time) domain.Window {
	width := time.Duration(s.Cfg.BatchDays) * day
	until := now.UTC()
	if p.LastIndexedAt != nil {
		until = p.LastIndexedAt.UTC()
	}
	return domain.Window{Since: until.Add(-width), Until: until}
}

// RunBatch indexes the next window of ref
func (s *Service) RunBatch(ctx context.Context, ref domain.RepoRef) (domain.BatchResult, error) {
	return s.runBatch(ctx, ref, false, time.Time{})
}

func (s *Service) runBatch(ctx context.Context, ref domain.RepoRef, continuing bool, floor time.Time) (res domain.BatchResult, retErr error) {
	if err := ref.Validate(); err != nil {
		return res, err
	}
	repo := ref.FullName()
	res.Repository = repo
	log := logger.C(ctx).With().Str("repo", repo).Logger()

	p, err := s.progress(ctx, repo)
	if err != nil {
		return res, err
	}

	now := s.now().UTC()
	if ok, reason := s.shouldIndex(p, now, continuing); !ok {
		log.Info().Str("status", string(p.Status)).Str("reason", reason).Msg("indexing skipped")
		metrics.IndexBatch(string(domain.BatchSkipped))
		return skipped(res, reason, p), nil
	}

	w := s.NextWindow(p, now)
	if !floor.IsZero() {
		if !w.Until.After(floor) {
			return skipped(res, ReasonFloor, p), nil
		}
		if w.Since.Before(floor) {
			w.Since = floor.UTC()
		}
	}

	runID := s.runID()
	claimed, err := s.claim(ctx, repo, runID, now)
	if err != nil {
		return res, err
	}
	if !claimed {
		metrics.IndexBatch(string(domain.BatchSkipped))
		return skipped(res, ReasonRunning, p), nil
	}
	res.RunID = runID
	res.Window = &w
	log = log.With().Str("run_id", runID).Time("since", w.Since).Time("until", w.Until).Logger()
	log.Info().Msg("indexing batch started")

	batchCtx, cancel := guardrails.ForBatch(ctx, s.Cfg.Timeouts)
	defer cancel()

	defer func() {
		if retErr != nil {
			s.fail(ctx, repo, retErr)
			log.Error().Err(retErr).Msg("indexing batch failed")
		}
	}()

	fetchCtx, fetchCancel := guardrails.ForFetch(batchCtx, s.Cfg.Timeouts)
	commits, err := s.Fetch.Fetch(fetchCtx, ref.Owner, ref.Name, s.Cfg.Token, w)
	fetchCancel()
	if err != nil {
		return res, err
	}
	res.Fetched = len(commits)

	results := s.classify(batchCtx, commits)

	classifiedAt := s.now().UTC()
	rows := make([]domain.CategoryRow, 0, len(commits))
	for i, c := range commits {
		if c.SHA == "" {
			res.Skipped++
			log.Warn().Int("index", i).Msg("commit without sha skipped")
			continue
		}
		rec := toRecord(ref, c, results[i])
		created, err := s.persist(batchCtx, rec)
		if err != nil {
			res.Failed++
			log.Warn().Err(err).Str("sha", c.SHA).Msg("persist commit failed")
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		rows = append(rows, domain.CategoryRow{
			Repository:   rec.Repository,
			SHA:          rec.SHA,
			Category:     rec.Category,
			Stage:        rec.Stage,
			CommittedAt:  rec.CommittedAt,
			ClassifiedAt: classifiedAt,
		})
	}
	s.sink(batchCtx, rows)

	var done domain.Progress
	err = s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		done, e = r.CompleteRun(c, repo, s.Cfg.EntityType, w.Since, res.Created)
		return e
	})
	if err != nil {
		return res, err
	}

	res.Status = domain.BatchSuccess
	res.TotalIndexed = done.TotalIndexed
	metrics.IndexBatch(string(domain.BatchSuccess))
	metrics.IndexCommits("created", res.Created)
	metrics.IndexCommits("updated", res.Updated)
	metrics.IndexCommits("failed", res.Failed)
	metrics.IndexCommits("skipped", res.Skipped)
	log.Info().
		Int("fetched", res.Fetched).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("failed", res.Failed).
		Int64("total", res.TotalIndexed).
		Msg("indexing batch completed")
	return res, nil
}

// RunUntil runs batches backward until floor, EmptyStop empty windows or maxBatches
// a zero floor or maxBatches disables that bound
func (s *Service) RunUntil(ctx context.Context, ref domain.RepoRef, floor time.Time, maxBatches int) (domain.RunSummary, error) {
	var sum domain.RunSummary
	empty := 0
	for {
		if maxBatches > 0 && sum.Batches >= maxBatches {
			sum.StopReason = "max batches"
			return sum, nil
		}
		if err := ctx.Err(); err != nil {
			sum.StopReason = "cancelled"
			return sum, err
		}

		res, err := s.runBatch(ctx, ref, sum.Batches > 0, floor)
		if err != nil {
			sum.StopReason = "error"
			return sum, err
		}
		if res.Status == domain.BatchSkipped {
			sum.StopReason = res.Reason
			return sum, nil
		}

		sum.Batches++
		sum.Created += res.Created
		sum.Updated += res.Updated
		sum.Failed += res.Failed

		if res.Fetched == 0 {
			empty++
		} else {
			empty = 0
		}
		if empty >= s.Cfg.EmptyStop {
			sum.StopReason = "empty windows"
			return sum, nil
		}
		if err := sleepCtx(ctx, s.Cfg.Delay); err != nil {
			sum.StopReason = "cancelled"
			return sum, err
		}
	}
}

// Reset returns the progress of ref to idle with zero totals
func (s *Service) Reset(ctx context.Context, ref domain.RepoRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		return r.ResetProgress(c, ref.FullName(), s.Cfg.EntityType)
	})
	if err == nil {
		logger.C(ctx).Info().Str("repo", ref.FullName()).Msg("indexing progress reset")
	}
	return err
}

// Info returns the progress of ref, the next window and whether a run could start now
func (s *Service) Info(ctx context.Context, ref domain.RepoRef) (domain.Info, error) {
	if err := ref.Validate(); err != nil {
		return domain.Info{}, err
	}
	p, err := s.progress(ctx, ref.FullName())
	if err != nil {
		return domain.Info{}, err
	}
	now := s.now()
	ok, reason := s.ShouldIndex(p, now)
	return domain.Info{Progress: p, NextWindow: s.NextWindow(p, now), CanRun: ok, SkipReason: reason}, nil
}

// ReclassifyOther reruns the cascade over stored commits still marked other
func (s *Service) ReclassifyOther(ctx context.Context, ref domain.RepoRef, limit int) (domain.ReclassifyResult, error) {
	var out domain.ReclassifyResult
	if err := ref.Validate(); err != nil {
		return out, err
	}
	repo := ref.FullName()

	var stored []domain.StoredCommit
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		stored, e = r.ListByCategory(c, repo, category.Other, limit)
		return e
	})
	if err != nil {
		return out, err
	}
	out.Scanned = len(stored)
	if len(stored) == 0 {
		return out, nil
	}

	inputs := make([]cdom.Input, len(stored))
	for i, sc := range stored {
		inputs[i] = cdom.Input{Message: sc.Message, Files: sc.Files}
	}
	results := s.classifyInputs(ctx, inputs)

	classifiedAt := s.now().UTC()
	var rows []domain.CategoryRow
	for i, sc := range stored {
		r := results[i]
		if r.Category.IsOther() {
			continue
		}
		err := s.tx(ctx, func(q domain.StorageRepo, c context.Context) error {
			return q.UpdateCategory(c, sc.SHA, r.Category, r.Stage)
		})
		if err != nil {
			out.Failed++
			logger.C(ctx).Warn().Err(err).Str("sha", sc.SHA).Msg("reclassify update failed")
			continue
		}
		out.Changed++
		rows = append(rows, domain.CategoryRow{
			Repository:   repo,
			SHA:          sc.SHA,
			Category:     r.Category,
			Stage:        r.Stage,
			CommittedAt:  sc.CommittedAt,
			ClassifiedAt: classifiedAt,
		})
	}
	s.sink(ctx, rows)
	metrics.IndexCommits("reclassified", out.Changed)
	logger.C(ctx).Info().Str("repo", repo).Int("scanned", out.Scanned).Int("changed", out.Changed).Msg("reclassify completed")
	return out, nil
}

// Categories returns stored commit counts per category
// the analytics store answers when configured, postgres otherwise
func (s *Service) Categories(ctx context.Context, ref domain.RepoRef) (map[string]uint64, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if s.Stats != nil {
		m, err := s.Stats.Stats(ctx, ref.FullName())
		if err == nil {
			return m, nil
		}
		logger.C(ctx).Warn().Err(err).Msg("analytics stats failed, using postgres")
	}
	var out map[string]uint64
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		out, e = r.CountByCategory(c, ref.FullName())
		return e
	})
	return out, err
}

// classify returns one result per commit, index aligned
func (s *Service) classify(ctx context.Context, commits []gh.Commit) []cdom.Result {
	inputs := make([]cdom.Input, len(commits))
	for i, c := range commits {
		inputs[i] = cdom.Input{Message: c.Commit.Message, Files: c.FileNames()}
	}
	return s.classifyInputs(ctx, inputs)
}

func (s *Service) classifyInputs(ctx context.Context, inputs []cdom.Input) []cdom.Result {
	cctx, cancel := guardrails.ForClassify(ctx, s.Cfg.Timeouts)
	defer cancel()

	results, err := s.Classify.ClassifyBatchDetailed(cctx, inputs)
	if err == nil && len(results) == len(inputs) {
		return results
	}
	logger.C(ctx).Warn().Err(err).Int("items", len(inputs)).Msg("batch classify failed, classifying per item")
	results = make([]cdom.Result, len(inputs))
	for i, in := range inputs {
		results[i] = s.Classify.Classify(ctx, in)
	}
	return results
}

func (s *Service) persist(ctx context.Context, rec domain.CommitRecord) (bool, error) {
	var created bool
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		created, e = r.UpsertCommit(c, rec)
		return e
	})
	return created, err
}

// sink is best effort, analytics never fails a batch
func (s *Service) sink(ctx context.Context, rows []domain.CategoryRow) {
	if s.Sink == nil || len(rows) == 0 {
		return
	}
	if err := s.Sink.WriteCategories(ctx, rows); err != nil {
		logger.C(ctx).Warn().Err(err).Int("rows", len(rows)).Msg("analytics write failed")
	}
}

func (s *Service) progress(ctx context.Context, repo string) (domain.Progress, error) {
	var p domain.Progress
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		p, e = r.EnsureProgress(c, repo, s.Cfg.EntityType)
		return e
	})
	return p, err
}

func (s *Service) claim(ctx context.Context, repo, runID string, now time.Time) (bool, error) {
	var ok bool
	err := s.tx(ctx, func(r domain.StorageRepo, c context.Context) error {
		var e error
		ok, e = r.ClaimRun(c, repo, s.Cfg.EntityType, runID, now, now.Add(-s.Cfg.StaleAfter))
		return e
	})
	return ok, err
}

// fail records the error even when ctx is already cancelled
func (s *Service) fail(ctx context.Context, repo string, cause error) {
	metrics.IndexBatch("failed")
	d := s.Cfg.Timeouts.DB
	if d <= 0 {
		d = 10 * time.Second
	}
	fctx, cancel := guardrails.Detached(ctx, d)
	defer cancel()
	err := s.DB.Tx(fctx, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FailRun(fctx, repo, s.Cfg.EntityType, cause.Error())
	})
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("repo", repo).Msg("record failed run")
	}
}

// tx runs fn in a transaction bounded by the DB timeout
// serialization failures and deadlocks get one more attempt
func (s *Service) tx(ctx context.Context, fn func(domain.StorageRepo, context.Context) error) error {
	dbCtx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	run := func(q repokit.Queryer) error { return fn(s.Binder.Bind(q), dbCtx) }
	err := s.DB.Tx(dbCtx, run)
	if err != nil && perr.Retryable(err) {
		logger.C(ctx).Debug().Err(err).Msg("retrying transaction")
		err = s.DB.Tx(dbCtx, run)
	}
	return err
}

func skipped(res domain.BatchResult, reason string, p domain.Progress) domain.BatchResult {
	res.Status = domain.BatchSkipped
	res.Reason = reason
	res.TotalIndexed = p.TotalIndexed
	return res
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
