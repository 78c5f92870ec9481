// Package module wires meta endpoints into the API
package module

import (
	"time"

	modkit "gitpulse/internal/modkit"
	"gitpulse/internal/modkit/httpkit"
	str "gitpulse/internal/platform/strings"

	metahttp "gitpulse/internal/services/meta/http"
)

// Ports are optional extras for the meta module
type Ports struct {
	// ServiceName is reported by health and version, empty means gitpulse-api
	ServiceName string
	// Oracle is pinged by the readiness probe when set
	Oracle metahttp.Pinger
}

// Module implements the modkit.Module interface
type Module struct {
	built modkit.Built
	mount func(httpkit.Router)

	startedAt time.Time
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	ports, _ := b.Ports.(Ports)

	m := &Module{
		built:     b,
		startedAt: time.Now(),
	}

	service := ports.ServiceName
	if service == "" {
		service = "gitpulse-api"
	}
	d := metahttp.Deps{ServiceName: service, StartedAt: m.startedAt, Probes: []metahttp.Probe{
		{Name: "pg", Target: deps.PG, Required: true},
		{Name: "ch", Target: deps.CH},
		{Name: "oracle", Target: ports.Oracle},
	}}

	m.mount = func(r httpkit.Router) { metahttp.Register(r, d) }
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r, m.mount) }

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.built.Name, "meta") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
