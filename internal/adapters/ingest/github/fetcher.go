package github

import (
	"context"
	"time"

	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 50
)

// FetcherOptions tunes pagination, zero values take defaults
type FetcherOptions struct {
	PageSize int
	MaxPages int

	// Strategies overrides the conflict recovery chain
	Strategies []Strategy

	// SkipPullRequests disables the per commit pull request lookup
	SkipPullRequests bool
}

// Fetcher pages through the commit endpoints for one window at a time
type Fetcher struct {
	c     *Client
	opts  FetcherOptions
	log   logger.Logger
	now   func() time.Time
	pulls bool
}

// NewFetcher builds a Fetcher over a Client
func NewFetcher(c *Client, o FetcherOptions) *Fetcher {
	if o.PageSize <= 0 {
		o.PageSize = defaultPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaultMaxPages
	}
	if len(o.Strategies) == 0 {
		o.Strategies = ConflictStrategies
	}
	return &Fetcher{
		c:     c,
		opts:  o,
		log:   *logger.Named("github.fetch"),
		now:   time.Now,
		pulls: !o.SkipPullRequests,
	}
}

// Fetch returns the commits of owner/repo inside w in the host's page order
// a range conflict that no strategy clears yields an empty result and nil error
func (f *Fetcher) Fetch(ctx context.Context, owner, repo, token string, w Window) ([]Commit, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	log := f.log.With().Str("repo", owner+"/"+repo).Logger()
	active := w
	var out []Commit

	for page := 1; ; page++ {
		if page > f.opts.MaxPages {
			log.Warn().Int("max_pages", f.opts.MaxPages).Int("commits", len(out)).Msg("page ceiling reached stopping fetch")
			break
		}

		items, err := f.c.ListCommits(ctx, owner, repo, token, active, page, f.opts.PageSize)
		if IsRangeConflict(err) {
			resolved, got, ok, rerr := f.resolveConflict(ctx, owner, repo, token, active, page)
			if rerr != nil {
				return nil, rerr
			}
			if !ok {
				metrics.FetchConflict("abandoned")
				log.Warn().
					Time("since", active.Since).
					Time("until", active.Until).
					Int("page", page).
					Msg("range conflict not resolved abandoning window")
				return nil, nil
			}
			metrics.FetchConflict("resolved")
			active, items, err = resolved, got, nil
		}
		if err != nil {
			return nil, err
		}

		for _, it := range items {
			if it.SHA == "" {
				continue
			}
			cm, err := f.c.CommitDetail(ctx, owner, repo, token, it.SHA)
			if err != nil {
				return nil, err
			}
			if cm.SHA == "" {
				cm.SHA = it.SHA
			}
			if f.pulls {
				cm.PullRequest = f.firstPull(ctx, owner, repo, token, it.SHA)
			}
			out = append(out, cm)
		}

		log.Debug().Int("page", page).Int("items", len(items)).Int("total", len(out)).Msg("commit page fetched")
		if len(items) < f.opts.PageSize {
			break
		}
	}
	return out, nil
}

// resolveConflict walks the strategy chain until one window stops conflicting
func (f *Fetcher) resolveConflict(
	ctx context.Context,
	owner, repo, token string,
	w Window,
	page int,
) (Window, []CommitSummary, bool, error) {
	for _, cand := range Candidates(w, f.now().UTC(), f.opts.Strategies) {
		items, err := f.c.ListCommits(ctx, owner, repo, token, cand.Window, page, f.opts.PageSize)
		switch {
		case err == nil:
			f.log.Info().
				Str("strategy", cand.Strategy).
				Time("since", cand.Window.Since).
				Time("until", cand.Window.Until).
				Int("items", len(items)).
				Msg("range conflict resolved")
			return cand.Window, items, true, nil
		case IsRangeConflict(err):
			continue
		case ctx.Err() != nil:
			return Window{}, nil, false, ctx.Err()
		case StatusOf(err) == 0:
			f.log.Warn().Err(err).Str("strategy", cand.Strategy).Msg("conflict strategy transport error trying next")
			continue
		default:
			return Window{}, nil, false, err
		}
	}
	return Window{}, nil, false, nil
}

// firstPull looks up the first linked pull request, failures mean no linkage
func (f *Fetcher) firstPull(ctx context.Context, owner, repo, token, sha string) *PullRequest {
	prs, err := f.c.CommitPulls(ctx, owner, repo, token, sha)
	if err != nil {
		f.log.Debug().Err(err).Str("sha", sha).Msg("pull request lookup failed")
		return nil
	}
	if len(prs) == 0 {
		return nil
	}
	pr := prs[0]
	return &pr
}
