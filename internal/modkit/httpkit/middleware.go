package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"gitpulse/internal/platform/net/middleware"
)

// StackOptions tune CommonStack
type StackOptions struct {
	AllowedOrigins []string
	// SlowRequest logs requests at warn from this duration, zero never warns
	SlowRequest time.Duration
	// RequestTimeout cancels handlers after this long, zero disables it
	RequestTimeout time.Duration
}

// CommonStack is the middleware every api route runs behind
func CommonStack(opt StackOptions) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(opt.SlowRequest),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.AllowedOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(opt.RequestTimeout),
	}
}

// Protected groups routes behind bearer auth, a nil port rejects every request
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	if p == nil {
		p = StaticTokens(nil)
	}
	r.Group(func(gr Router) {
		gr.Use(middleware.Auth(p))
		fn(gr)
	})
}
