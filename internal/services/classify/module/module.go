// Package module wires the classification cascade into the API using modkit
package module

import (

	"gitpulse/internal/adapters/llm/ollama"
	modkit "gitpulse/internal/modkit"
	"gitpulse/internal/modkit/httpkit"
	"gitpulse/internal/services/classify/domain"
	chttp "gitpulse/internal/services/classify/http"
	csvc "gitpulse/internal/services/classify/service"
)

// Module implements the classify API module
type Module struct {
	built modkit.Built
	mount func(httpkit.Router)

	svc    *csvc.Service
	oracle *ollama.Client
}

// Ports is what other modules consume from classify
type Ports struct {
	Classifier domain.ClassifierPort
	// Oracle is nil when the oracle is disabled
	Oracle *ollama.Client
}

// New constructs the classify module
// an injected domain.Oracle port replaces the configured ollama client
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("classify"),
		modkit.WithPrefix("/classify"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)

	m := &Module{built: b}

	var oracle domain.Oracle
	if p, ok := b.Ports.(domain.Oracle); ok {
		oracle = p
	} else if cfg.OracleEnabled {
		m.oracle = ollama.New(cfg.Oracle)
		oracle = m.oracle
	}
	m.svc = csvc.New(oracle, cfg.serviceConfig())

	m.mount = func(r httpkit.Router) { chttp.Register(r, m.svc) }
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r, m.mount) }

// Ports returns the classify Ports
func (m *Module) Ports() any { return Ports{Classifier: m.svc, Oracle: m.oracle} }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

