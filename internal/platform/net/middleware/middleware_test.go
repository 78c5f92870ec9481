package middleware_test

import (
	"compress/flate"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perr "gitpulse/internal/platform/errors"
	pnet "gitpulse/internal/platform/net"
	phttp "gitpulse/internal/platform/net/http"
	"gitpulse/internal/platform/net/middleware"
)

type fakePort struct {
	user string
	err  error
}

func (f fakePort) Parse(*http.Request) (string, error) { return f.user, f.err }

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestAuth(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.UserID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("nil port passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middleware.Auth(nil)(next).ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("code %d", rec.Code)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		seen = ""
		rec := httptest.NewRecorder()
		h := chain(next, middleware.RequestID(), middleware.Auth(fakePort{err: perr.Unauthorizedf("missing bearer token")}))
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		env := envelope(t, rec)
		if rec.Code != http.StatusUnauthorized || env.Code != perr.ErrorCodeUnauthorized || env.RequestID == "" {
			t.Fatalf("code %d envelope %+v", rec.Code, env)
		}
		if seen != "" {
			t.Fatal("next ran after rejection")
		}
	})

	t.Run("accepted sets user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		middleware.Auth(fakePort{user: "admin-1"})(next).ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		if rec.Code != http.StatusTeapot || seen != "admin-1" {
			t.Fatalf("code %d user %q", rec.Code, seen)
		}
	})
}

func TestRecoverJSON(t *testing.T) {
	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	chain(boom, middleware.RequestID(), middleware.RecoverJSON).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	env := envelope(t, rec)
	if rec.Code != http.StatusInternalServerError || env.Code != perr.ErrorCodePanic || env.RequestID == "" {
		t.Fatalf("code %d envelope %+v", rec.Code, env)
	}

	abort := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })
	v := recovered(func() {
		middleware.RecoverJSON(abort).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	})
	if v != http.ErrAbortHandler {
		t.Fatalf("ErrAbortHandler should be re-panicked, recovered %v", v)
	}
}

func recovered(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

func TestAccessLog_CapturesStatusAndBytes(t *testing.T) {
	var sawReqID string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawReqID = pnet.RequestID(r.Context())
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("queued"))
	}), middleware.RequestID(), middleware.AccessLog(time.Nanosecond))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/run", nil))
	if rec.Code != http.StatusAccepted || rec.Body.String() != "queued" || sawReqID == "" {
		t.Fatalf("code %d body %q request id %q", rec.Code, rec.Body.String(), sawReqID)
	}
}

func TestTimeout_ZeroDisables(t *testing.T) {
	var hasDeadline bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})
	middleware.Timeout(0)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if hasDeadline {
		t.Fatal("zero timeout set a deadline")
	}
	middleware.Timeout(time.Minute)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !hasDeadline {
		t.Fatal("timeout did not set a deadline")
	}
}

func TestCompress_WhenAccepted(t *testing.T) {
	h := middleware.Compress(flate.BestSpeed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Repeat(`{"category":"fix"}`, 64)))
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("headers %v", rec.Header())
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://pulse.example"}})(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/indexing/o/r/run", nil)
	req.Header.Set("Origin", "https://pulse.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://pulse.example" {
		t.Fatalf("allow origin %q headers %v", got, rec.Header())
	}
}

func TestHeartbeat(t *testing.T) {
	rec := httptest.NewRecorder()
	middleware.Heartbeat("/health")(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code %d", rec.Code)
	}
}
