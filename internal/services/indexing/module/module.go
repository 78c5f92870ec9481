// Package module wires the indexing orchestrator into the API using modkit
package module

import (
	"context"

	gh "gitpulse/internal/adapters/ingest/github"
	modkit "gitpulse/internal/modkit"
	"gitpulse/internal/modkit/httpkit"
	"gitpulse/internal/modkit/repokit"
	"gitpulse/internal/services/indexing/domain"
	ihttp "gitpulse/internal/services/indexing/http"
	"gitpulse/internal/services/indexing/repo"
	"gitpulse/internal/services/indexing/service"
)

// Module implements the indexing API module
type Module struct {
	built modkit.Built
	mount func(httpkit.Router)

	deps modkit.Deps
	opts Options
	svc  *service.Service
	sink *repo.CHSink
}

// Ports is what other modules and binaries consume from indexing
type Ports struct {
	Runner domain.RunnerPort
	// Setup applies the postgres schema and the analytics table
	Setup func(ctx context.Context) error
}

// New constructs the indexing module
// it requires WithPorts(domain.Ports) carrying at least a Classifier
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("indexing"),
		modkit.WithPrefix("/indexing"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok || ports.Classifier == nil {
		panic("indexing module: expected WithPorts(indexing/domain.Ports) with a Classifier")
	}
	if deps.PG == nil {
		panic("indexing module: postgres is required")
	}

	cfg := FromConfig(deps.Cfg)

	fetcher := ports.Fetcher
	if fetcher == nil {
		fetcher = gh.NewFetcher(gh.NewClient(cfg.GitHub), cfg.Fetcher)
	}

	m := &Module{
		built: b,
		deps:  deps,
		opts:  cfg,
	}

	var svcOpts []service.Option
	if cfg.Analytics && deps.CH != nil {
		m.sink = repo.NewCHSink(deps.CH)
		svcOpts = append(svcOpts, service.WithSink(m.sink), service.WithStats(m.sink))
	}
	db := repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(cfg.Timeouts.DB))
	m.svc = service.New(db, repo.NewPG(), fetcher, ports.Classifier, cfg.ServiceConfig(), svcOpts...)

	auth := httpkit.StaticTokens(cfg.AdminTokens)
	m.mount = func(r httpkit.Router) { ihttp.Register(r, m.svc, auth) }
	return m
}

// Setup applies schemas for the configured backends
func (m *Module) Setup(ctx context.Context) error {
	if m.opts.Migrate {
		if err := repo.Migrate(ctx, m.deps.PG); err != nil {
			return err
		}
	}
	if m.sink != nil {
		if err := m.sink.EnsureTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) { m.built.Mount(r, m.mount) }

// Ports returns the indexing Ports
func (m *Module) Ports() any { return Ports{Runner: m.svc, Setup: m.Setup} }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

