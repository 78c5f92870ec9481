// Package service implements the classification cascade
package service

import (
	"context"

	"gitpulse/internal/core/category"
	"gitpulse/internal/core/fileheur"
	"gitpulse/internal/core/pattern"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"
	"gitpulse/internal/services/classify/domain"

	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 3

// Config holds configuration options for the cascade
type Config struct {
	// Workers bounds concurrent oracle calls in a batch; <=0 -> 3
	Workers int
}

// Service runs the fast path then escalates undecided commits to the oracle
type Service struct {
	oracle domain.Oracle
	cfg    Config
}

var _ domain.ClassifierPort = (*Service)(nil)

// New constructs the cascade, a nil oracle disables escalation
func New(oracle domain.Oracle, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Service{oracle: oracle, cfg: cfg}
}

// FastPath classifies without any network call
// files decide first when present, the message pattern otherwise
func FastPath(in domain.Input) domain.Result {
	if len(in.Files) > 0 {
		if c, ok := fileheur.Classify(in.Files); ok {
			return domain.Result{Category: c, Stage: domain.StageFiles}
		}
	}
	return domain.Result{Category: pattern.Classify(in.Message), Stage: domain.StagePattern}
}

// Classify runs the full cascade for one commit
func (s *Service) Classify(ctx context.Context, in domain.Input) domain.Result {
	r := FastPath(in)
	if r.Category.IsOther() && s.oracle != nil {
		r = s.escalate(ctx, in.Message, r)
	}
	metrics.Classified(string(r.Stage), string(r.Category))
	return r
}

// ClassifyBatch returns categories index aligned with in
func (s *Service) ClassifyBatch(ctx context.Context, in []domain.Input) ([]category.Category, error) {
	res, err := s.ClassifyBatchDetailed(ctx, in)
	out := make([]category.Category, len(res))
	for i, r := range res {
		out[i] = r.Category
	}
	return out, err
}

// ClassifyBatchDetailed returns results index aligned with in
// the slice is always complete, err only reports a dispatch that could not run
func (s *Service) ClassifyBatchDetailed(ctx context.Context, in []domain.Input) ([]domain.Result, error) {
	out := make([]domain.Result, len(in))
	var pending []int
	for i, item := range in {
		out[i] = FastPath(item)
		if out[i].Category.IsOther() {
			pending = append(pending, i)
		}
	}

	var err error
	if len(pending) > 0 && s.oracle != nil {
		msgs := make([]string, len(pending))
		for k, idx := range pending {
			msgs[k] = in[idx].Message
		}
		var got []domain.Result
		got, err = s.dispatch(ctx, msgs, out, pending)
		if err != nil {
			logger.C(ctx).Warn().Err(err).Int("pending", len(pending)).Msg("oracle dispatch failed keeping fast path results")
			for _, idx := range pending {
				out[idx].Stage = domain.StageFallback
			}
		} else {
			for k, idx := range pending {
				out[idx] = got[k]
			}
		}
	}

	for _, r := range out {
		metrics.Classified(string(r.Stage), string(r.Category))
	}
	return out, err
}

// dispatch fans msgs out to the oracle with a bounded group
// results land in a pre sized slice keyed by position
func (s *Service) dispatch(ctx context.Context, msgs []string, fast []domain.Result, idx []int) (res []domain.Result, err error) {
	if cerr := ctx.Err(); cerr != nil {
		return nil, perr.Wrapf(cerr, perr.ErrorCodeUnavailable, "classify dispatch")
	}

	res = make([]domain.Result, len(msgs))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	defer func() {
		if r := recover(); r != nil {
			_ = g.Wait()
			res, err = nil, perr.PanicErrf("classify dispatch panicked: %v", r)
		}
	}()

	for k, m := range msgs {
		safety := fast[idx[k]]
		g.Go(func() error {
			res[k] = s.escalate(ctx, m, safety)
			return nil
		})
	}
	return res, g.Wait()
}

// escalate asks the oracle and falls back to the fast path result on panic
func (s *Service) escalate(ctx context.Context, message string, fast domain.Result) (r domain.Result) {
	defer func() {
		if p := recover(); p != nil {
			logger.C(ctx).Error().Interface("panic", p).Msg("oracle classify panicked")
			r = domain.Result{Category: fast.Category, Stage: domain.StageFallback}
		}
	}()
	c := s.oracle.Classify(ctx, message)
	if !c.Valid() {
		c = category.Other
	}
	return domain.Result{Category: c, Stage: domain.StageOracle}
}
