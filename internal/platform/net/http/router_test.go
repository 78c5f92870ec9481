package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func hit(h stdhttp.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func text(s string) Handler {
	return func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { _, _ = w.Write([]byte(s)) }
}

func TestAdaptChi_RoutesGroupsAndMiddleware(t *testing.T) {
	mux := chi.NewRouter()
	r := AdaptChi(mux)

	r.Route("/api", func(api Router) {
		api.Get("/a", text("get"))
		api.Post("/a", text("post"))
		api.Delete("/a", text("delete"))
		api.Group(func(g Router) {
			g.Use(func(next stdhttp.Handler) stdhttp.Handler {
				return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
					w.Header().Set("X-Group", "1")
					next.ServeHTTP(w, req)
				})
			})
			g.Get("/b", text("b"))
		})
	})
	r.Handle("/raw", stdhttp.HandlerFunc(text("raw")))

	for method, want := range map[string]string{"GET": "get", "POST": "post", "DELETE": "delete"} {
		if rec := hit(mux, method, "/api/a"); rec.Body.String() != want {
			t.Fatalf("%s /api/a = %q", method, rec.Body.String())
		}
	}
	if rec := hit(mux, "GET", "/api/b"); rec.Body.String() != "b" || rec.Header().Get("X-Group") != "1" {
		t.Fatalf("group route %q %v", rec.Body.String(), rec.Header())
	}
	if rec := hit(mux, "GET", "/api/a-missing"); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("missing route %d", rec.Code)
	}
	if rec := hit(mux, "PUT", "/raw"); rec.Body.String() != "raw" {
		t.Fatalf("Handle should accept any method, got %q", rec.Body.String())
	}
}

func TestMountProfiler(t *testing.T) {
	off := chi.NewRouter()
	MountProfiler(AdaptChi(off), "/debug", false)
	if rec := hit(off, "GET", "/debug/pprof/"); rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("disabled profiler served %d", rec.Code)
	}

	on := chi.NewRouter()
	MountProfiler(AdaptChi(on), "/debug", true)
	if rec := hit(on, "GET", "/debug/pprof/"); rec.Code != stdhttp.StatusOK {
		t.Fatalf("pprof index %d", rec.Code)
	}
}
