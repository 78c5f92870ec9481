// Package http provides http transport for classify
package http

import (
	stdhttp "net/http"

	"gitpulse/internal/core/category"
	"gitpulse/internal/modkit/httpkit"
	"gitpulse/internal/services/classify/domain"
)

// Register mounts the classify routes
func Register(r httpkit.Router, s domain.ClassifierPort) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.Input](r, "/", h.classify)
	httpkit.PostJSON[domain.BatchInput](r, "/batch", h.batch)
}

type handlers struct{ svc domain.ClassifierPort }

func (h *handlers) classify(r *stdhttp.Request, in domain.Input) (any, error) {
	return h.svc.Classify(r.Context(), in), nil
}

func (h *handlers) batch(r *stdhttp.Request, in domain.BatchInput) (any, error) {
	res, err := h.svc.ClassifyBatchDetailed(r.Context(), in.Items)
	if err != nil {
		return nil, err
	}
	out := domain.BatchOutput{
		Categories: make([]category.Category, len(res)),
		Stages:     make([]domain.Stage, len(res)),
	}
	for i, x := range res {
		out.Categories[i] = x.Category
		out.Stages[i] = x.Stage
	}
	return out, nil
}
