// Package http provides http transport for indexing
package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"gitpulse/internal/modkit/httpkit"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/net/middleware"
	"gitpulse/internal/services/indexing/domain"

	"github.com/go-chi/chi/v5"
)

const (
	maxBatches    = 100
	maxReclassify = 5000
)

// Register mounts the indexing routes
//
//	GET    /{owner}/{repo}             progress and next window
//	POST   /{owner}/{repo}/run         one batch, or a loop with ?batches=N&floor=YYYY-MM-DD
//	DELETE /{owner}/{repo}             reset progress
//	GET    /{owner}/{repo}/categories  counts per category
//	POST   /{owner}/{repo}/reclassify  rerun the cascade over other, ?limit=N
//
// the mutating routes require a bearer token, a nil auth rejects them all
func Register(r httpkit.Router, s domain.RunnerPort, auth middleware.AuthPort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/{owner}/{repo}", h.info)
	httpkit.Get(r, "/{owner}/{repo}/categories", h.categories)

	httpkit.Protected(r, auth, func(pr httpkit.Router) {
		httpkit.Post(pr, "/{owner}/{repo}/run", h.run)
		httpkit.Delete(pr, "/{owner}/{repo}", h.reset)
		httpkit.Post(pr, "/{owner}/{repo}/reclassify", h.reclassify)
	})
}

type handlers struct{ svc domain.RunnerPort }

func (h *handlers) info(r *stdhttp.Request) (any, error) {
	ref, err := repoRef(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Info(r.Context(), ref)
}

func (h *handlers) run(r *stdhttp.Request) (any, error) {
	ref, err := repoRef(r)
	if err != nil {
		return nil, err
	}
	batches, err := queryInt(r, "batches", 1, 1, maxBatches)
	if err != nil {
		return nil, err
	}
	floor, err := queryDate(r, "floor")
	if err != nil {
		return nil, err
	}
	logger.C(r.Context()).Info().
		Str("actor", httpkit.Actor(r)).
		Str("repo", ref.FullName()).
		Int("batches", batches).
		Msg("indexing run requested")
	if batches == 1 && floor.IsZero() {
		return h.svc.RunBatch(r.Context(), ref)
	}
	return h.svc.RunUntil(r.Context(), ref, floor, batches)
}

func (h *handlers) reset(r *stdhttp.Request) (any, error) {
	ref, err := repoRef(r)
	if err != nil {
		return nil, err
	}
	logger.C(r.Context()).Info().Str("actor", httpkit.Actor(r)).Str("repo", ref.FullName()).Msg("indexing reset requested")
	if err := h.svc.Reset(r.Context(), ref); err != nil {
		return nil, err
	}
	return map[string]any{"repository": ref.FullName(), "status": domain.StatusIdle}, nil
}

func (h *handlers) categories(r *stdhttp.Request) (any, error) {
	ref, err := repoRef(r)
	if err != nil {
		return nil, err
	}
	counts, err := h.svc.Categories(r.Context(), ref)
	if err != nil {
		return nil, err
	}
	return map[string]any{"repository": ref.FullName(), "categories": counts}, nil
}

func (h *handlers) reclassify(r *stdhttp.Request) (any, error) {
	ref, err := repoRef(r)
	if err != nil {
		return nil, err
	}
	limit, err := queryInt(r, "limit", 500, 1, maxReclassify)
	if err != nil {
		return nil, err
	}
	return h.svc.ReclassifyOther(r.Context(), ref, limit)
}

func repoRef(r *stdhttp.Request) (domain.RepoRef, error) {
	ref := domain.RepoRef{Owner: chi.URLParam(r, "owner"), Name: chi.URLParam(r, "repo")}
	return ref, ref.Validate()
}

func queryInt(r *stdhttp.Request, key string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, perr.Newf(perr.ErrorCodeValidation, "%s must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func queryDate(r *stdhttp.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, perr.Newf(perr.ErrorCodeValidation, "%s must be a YYYY-MM-DD date", key)
	}
	return t, nil
}
