package httpkit

import (
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

	"github.com/go-chi/chi/v5"
)

type payload struct {
	Message string `json:"message" validate:"required"`
}

func mounted(t *testing.T, auth middleware.AuthPort) http.Handler {
	t.Helper()
	mux := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(mux), CommonStack(StackOptions{SlowRequest: time.Second}), func(api Router) {
		Get(api, "/who", func(r *http.Request) (any, error) { return Actor(r), nil })
		Get(api, "/missing", func(*http.Request) (any, error) { return nil, perr.ErrNotFound })
		PostJSON(api, "/echo", func(_ *http.Request, in payload) (any, error) { return in, nil })
		Protected(api, auth, func(pr Router) {
			Post(pr, "/act", func(r *http.Request) (any, error) { return Actor(r), nil })
			Delete(pr, "/act", func(*http.Request) (any, error) { return "gone", nil })
		})
	})
	return mux
}

func call(h http.Handler, method, path, body, token string) (int, phttp.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env phttp.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

func TestSugar_EnvelopeAndVersioning(t *testing.T) {
	h := mounted(t, nil)

	code, env := call(h, "GET", "/api/v1/who", "", "")
	if code != http.StatusOK || env.Data != "anonymous" || env.RequestID == "" {
		t.Fatalf("who: %d %+v", code, env)
	}
	if code, _ = call(h, "GET", "/who", "", ""); code != http.StatusNotFound {
		t.Fatalf("unversioned path served %d", code)
	}
	if code, env = call(h, "GET", "/api/v1/missing", "", ""); code != http.StatusNotFound || env.Code != perr.ErrorCodeNotFound {
		t.Fatalf("missing: %d %+v", code, env)
	}
	if code, env = call(h, "POST", "/api/v1/echo", `{"message":"feat: x"}`, ""); code != http.StatusOK {
		t.Fatalf("echo: %d %+v", code, env)
	}
	if code, env = call(h, "POST", "/api/v1/echo", `{}`, ""); code != http.StatusBadRequest || env.Field != "message" {
		t.Fatalf("echo invalid: %d %+v", code, env)
	}
}

func TestProtected(t *testing.T) {
	for name, auth := range map[string]middleware.AuthPort{"nil port": nil, "no tokens": StaticTokens([]string{" ", ""})} {
		h := mounted(t, auth)
		if code, _ := call(h, "POST", "/api/v1/act", "", ""); code != http.StatusUnauthorized {
			t.Fatalf("%s, no token: %d", name, code)
		}
		if code, _ := call(h, "DELETE", "/api/v1/act", "", "anything"); code != http.StatusUnauthorized {
			t.Fatalf("%s, any token: %d", name, code)
		}
		if code, _ := call(h, "GET", "/api/v1/who", "", ""); code != http.StatusOK {
			t.Fatalf("%s, open route: %d", name, code)
		}
	}

	locked := mounted(t, StaticTokens([]string{"first", "second"}))
	if code, _ := call(locked, "POST", "/api/v1/act", "", ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", code)
	}
	if code, _ := call(locked, "DELETE", "/api/v1/act", "", "nope"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}
	if code, env := call(locked, "POST", "/api/v1/act", "", "second"); code != http.StatusOK || env.Data != "admin-1" {
		t.Fatalf("good token: %d %+v", code, env)
	}
	if code, _ := call(locked, "GET", "/api/v1/who", "", ""); code != http.StatusOK {
		t.Fatalf("open route behind locked group: %d", code)
	}
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := Actor(req); got != "anonymous" {
		t.Fatalf("Actor = %q", got)
	}
	req = req.WithContext(pnet.WithUser(req.Context(), "admin-0"))
	if got := Actor(req); got != "admin-0" {
		t.Fatalf("Actor = %q", got)
	}
}
