package modkit

import "net/http"

// Option adjusts how a module is built
type Option func(*buildCfg)

type buildCfg struct {
	name   string
	prefix string
	mw     []func(http.Handler) http.Handler
	ports  any
}

// WithName names the module for logs and port lookups
func WithName(name string) Option { return func(c *buildCfg) { c.name = name } }

// WithPrefix sets the route prefix under the api root
func WithPrefix(prefix string) Option { return func(c *buildCfg) { c.prefix = prefix } }

// WithMiddlewares runs mw, in order, in front of every module route
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}

// WithPorts hands a module the ports it consumes, the module asserts the type
func WithPorts[T any](p T) Option { return func(c *buildCfg) { c.ports = p } }
