package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "gitpulse/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/meta", func(sub phttp.Router) { Register(sub, d) })

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return rec.Code
}

func TestHealthAndVersion(t *testing.T) {
	d := Deps{ServiceName: "gitpulse-api", StartedAt: time.Now().Add(-time.Minute)}

	var h HealthResponse
	if code := get(t, d, "/meta/health", &h); code != stdhttp.StatusOK || !h.OK || h.Service != "gitpulse-api" {
		t.Fatalf("health %d %+v", code, h)
	}

	var v struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	if code := get(t, d, "/meta/version", &v); code != stdhttp.StatusOK || v.Service != "gitpulse-api" || v.Version == "" {
		t.Fatalf("version %d %+v", code, v)
	}

	var s ServiceResponse
	if get(t, d, "/meta/service", &s); s.Uptime < 59 {
		t.Fatalf("uptime %d", s.Uptime)
	}
}

func TestReady(t *testing.T) {
	probes := func(pg, ch, oracle any) Deps {
		return Deps{Probes: []Probe{
			{Name: "pg", Target: pg, Required: true},
			{Name: "ch", Target: ch},
			{Name: "oracle", Target: oracle},
		}}
	}
	cases := []struct {
		name string
		deps Deps
		want string
	}{
		{"all ok", probes(pinger{}, pinger{}, pinger{}), "ok"},
		{"optional skipped", probes(pinger{}, nil, nil), "ok"},
		{"oracle down", probes(pinger{}, nil, pinger{err: errors.New("refused")}), "degraded"},
		{"no ping method", probes(pinger{}, struct{}{}, nil), "degraded"},
		{"pg down", probes(pinger{err: errors.New("refused")}, pinger{}, nil), "fail"},
		{"pg missing", probes(nil, pinger{}, nil), "fail"},
	}
	for _, tc := range cases {
		var r ReadyResponse
		if code := get(t, tc.deps, "/meta/ready", &r); code != stdhttp.StatusOK {
			t.Fatalf("%s: status %d", tc.name, code)
		}
		if r.Status != tc.want || len(r.Checks) != 3 {
			t.Errorf("%s: got %+v, want %s", tc.name, r, tc.want)
		}
	}
}

func TestCategories(t *testing.T) {
	var out struct {
		Categories []string `json:"categories"`
	}
	get(t, Deps{}, "/meta/categories", &out)
	if len(out.Categories) != 8 || out.Categories[7] != "other" {
		t.Fatalf("categories %v", out.Categories)
	}
}
