// Package httpkit is what service modules import to mount routes
// it keeps chi and the platform http package out of service code
package httpkit

import (
	"net/http"

	pnet "gitpulse/internal/platform/net"
	phttp "gitpulse/internal/platform/net/http"
)

// Router is the platform router seam
type Router = phttp.Router

// Get mounts a body-less handler, its result is wrapped in the envelope
func Get(r Router, path string, h func(*http.Request) (any, error)) { r.Get(path, phttp.Call(h)) }

// Post mounts a body-less handler, parameters come from the path and query
func Post(r Router, path string, h func(*http.Request) (any, error)) { r.Post(path, phttp.Call(h)) }

// Delete mounts a body-less handler
func Delete(r Router, path string, h func(*http.Request) (any, error)) { r.Delete(path, phttp.Call(h)) }

// PostJSON mounts a handler that receives a validated T decoded from the body
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

// Actor is the authenticated user id, or anonymous on open routes
func Actor(r *http.Request) string {
	if uid := pnet.UserID(r.Context()); uid != "" {
		return uid
	}
	return "anonymous"
}

// MountAPIV1 mounts mount under /api/v1 behind mw
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}
