package middleware

import (
	"net/http"
	"time"

	"gitpulse/internal/platform/logger"
	pnet "gitpulse/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog tags the request context for logger.C and writes one line per
// request: error for 5xx, warn once it took slow (slow <= 0 never warns), info otherwise
// it must run after RequestID
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithRequest(r.Context(), pnet.RequestID(r.Context()), "")
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))
			took := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.C(ctx)
			evt := log.Info()
			if status >= http.StatusInternalServerError {
				evt = log.Error()
			} else if slow > 0 && took >= slow {
				evt = log.Warn()
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", took).
				Msg("request done")
		})
	}
}
