package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gitpulse/internal/platform/config"
	phttp "gitpulse/internal/platform/net/http"
	"gitpulse/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func newAPI(t *testing.T) (http.Handler, Mounted) {
	t.Helper()
	t.Setenv("CORE_OLLAMA_ENABLED", "false")
	mux := chi.NewRouter()
	out := Mount(phttp.AdaptChi(mux), Options{
		Config:        config.New(),
		ServiceName:   "gitpulse-test",
		EnableMetrics: true,
		Indexing:      true,
	})
	return mux, out
}

func TestMount_RoutesAndMetrics(t *testing.T) {
	h, out := newAPI(t)
	if out.Indexing != nil {
		t.Fatalf("indexing needs postgres and must stay unmounted")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("heartbeat status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/meta/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status %d", rec.Code)
	}
	testkit.MustContain(t, rec.Body.String(), "gitpulse-test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(`{"message":"docs: update readme"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("classify status %d: %s", rec.Code, rec.Body.String())
	}
	testkit.MustContain(t, rec.Body.String(), `"category":"docs"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	testkit.MustContain(t, rec.Body.String(), "gitpulse_classify_total")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/indexing/acme/widgets", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("indexing without postgres: status %d", rec.Code)
	}
}
