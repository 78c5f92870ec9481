// Package http serves the meta endpoints under /meta
package http

import (
	"context"
	"net/http"
	"time"

	"gitpulse/internal/core/category"
	"gitpulse/internal/core/version"
	"gitpulse/internal/modkit/httpkit"

	"golang.org/x/sync/errgroup"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Probe is one readiness dependency
// a nil Target reports skipped, a Target without Ping reports unknown
type Probe struct {
	Name     string
	Target   any
	Required bool
}

type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Probes      []Probe

	// ReadyTimeout bounds the readiness pings together, zero means 2s
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

func Register(r httpkit.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/categories", h.categories)
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck is the outcome of one probe: ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse status is fail when a required probe is not ok,
// degraded when an optional one failed, ok otherwise
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h *handlers) health(*http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.deps.ServiceName, Started: stamp(h.deps.StartedAt), Now: stamp(h.now())}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	probes := h.deps.Probes
	checks := make([]ReadyCheck, len(probes))
	var g errgroup.Group
	for i, p := range probes {
		g.Go(func() error {
			checks[i] = probe(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	for i, c := range checks {
		switch {
		case c.Status == "ok", c.Status == "skipped" && !probes[i].Required:
		case probes[i].Required:
			status = "fail"
		case status == "ok":
			status = "degraded"
		}
	}
	return ReadyResponse{Status: status, Checks: checks, Now: stamp(h.now())}, nil
}

func probe(ctx context.Context, p Probe) ReadyCheck {
	c := ReadyCheck{Name: p.Name, Status: "ok"}
	if p.Target == nil {
		c.Status = "skipped"
		return c
	}
	pinger, ok := p.Target.(Pinger)
	if !ok {
		c.Status = "unknown"
		return c
	}
	if err := pinger.Ping(ctx); err != nil {
		c.Status, c.Error = "fail", err.Error()
	}
	return c
}

func (h *handlers) version(*http.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

func (h *handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: stamp(h.deps.StartedAt),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) categories(*http.Request) (any, error) {
	return map[string]any{"categories": category.All()}, nil
}
