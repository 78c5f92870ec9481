// Package modkit composes api modules from shared deps and options
package modkit

import (
	phttp "gitpulse/internal/platform/net/http"
)

// Module is what the api composes: routes, a name and a port bundle
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
