// Package api provides the HTTP API for the application
package api

import (
	"gitpulse/internal/platform/config"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"
	phttp "gitpulse/internal/platform/net/http"
	"gitpulse/internal/platform/net/middleware"
	"gitpulse/internal/platform/store"

	"gitpulse/internal/modkit"
	"gitpulse/internal/modkit/httpkit"

	classifymod "gitpulse/internal/services/classify/module"
	indexingdom "gitpulse/internal/services/indexing/domain"
	indexingmod "gitpulse/internal/services/indexing/module"
	metamod "gitpulse/internal/services/meta/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	ServiceName    string
	EnableMetrics  bool
	EnableProfiler bool
	Stack          httpkit.StackOptions

	// Indexing mounts the indexing routes, it needs postgres
	Indexing bool
	// IndexingConcurrency caps in flight indexing requests, zero means unlimited
	IndexingConcurrency int
}

// Mounted is what the caller may need after Mount
type Mounted struct {
	Indexing *indexingmod.Ports
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Mounted {
	r.Use(middleware.Heartbeat("/health"))

	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// classify owns the cascade, indexing consumes it
	cm := classifymod.New(deps)
	cports := modkit.MustPortsOf[classifymod.Ports](cm)

	metaPorts := metamod.Ports{ServiceName: opt.ServiceName}
	if cports.Oracle != nil {
		metaPorts.Oracle = cports.Oracle
	}

	mods := []modkit.Module{
		metamod.New(deps, modkit.WithPorts(metaPorts)),
		cm,
	}

	var out Mounted
	if opt.Indexing && deps.PG != nil {
		im := indexingmod.New(deps,
			modkit.WithPorts(indexingdom.Ports{Classifier: cports.Classifier}),
			modkit.WithMiddlewares(middleware.Throttle(opt.IndexingConcurrency)),
		)
		ip := modkit.MustPortsOf[indexingmod.Ports](im)
		out.Indexing = &ip
		mods = append(mods, im)
	}

	if opt.EnableMetrics {
		r.Handle("/metrics", metrics.Handler())
	}
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Stack), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
	return out
}
