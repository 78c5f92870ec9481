package middleware

import (
	"net/http"

	"gitpulse/internal/platform/logger"
	pnet "gitpulse/internal/platform/net"
	phttp "gitpulse/internal/platform/net/http"
)

// AuthPort resolves the caller of a request
type AuthPort interface {
	Parse(r *http.Request) (userID string, err error)
}

// Auth rejects requests the port cannot resolve with the error envelope
// a nil port lets everything through
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := p.Parse(r)
			if err != nil {
				logger.C(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("auth rejected")
				phttp.WriteError(w, r, err)
				return
			}
			ctx := pnet.WithUser(r.Context(), uid)
			ctx = logger.WithRequest(ctx, "", uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
