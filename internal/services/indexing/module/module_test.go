package module

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/modkit"
	"gitpulse/internal/platform/config"
	phttp "gitpulse/internal/platform/net/http"
	"gitpulse/internal/platform/store"
	"gitpulse/internal/platform/testkit"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"

	"github.com/go-chi/chi/v5"
)

type nopTx struct{}

func (nopTx) Tx(context.Context, func(store.RowQuerier) error) error         { return nil }
func (nopTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (nopTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (nopTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }

type nopClassifier struct{}

func (nopClassifier) Classify(context.Context, cdom.Input) cdom.Result { return cdom.Result{} }
func (nopClassifier) ClassifyBatchDetailed(_ context.Context, in []cdom.Input) ([]cdom.Result, error) {
	return make([]cdom.Result, len(in)), nil
}

type nopFetcher struct{}

func (nopFetcher) Fetch(context.Context, string, string, string, domain.Window) ([]gh.Commit, error) {
	return nil, nil
}

func TestNew_RequiresClassifierPort(t *testing.T) {
	testkit.MustPanic(t, func() {
		New(modkit.Deps{Cfg: config.New(), PG: nopTx{}})
	})
}

func TestNew_RequiresPostgres(t *testing.T) {
	testkit.MustPanic(t, func() {
		New(modkit.Deps{Cfg: config.New()}, modkit.WithPorts(domain.Ports{Classifier: nopClassifier{}}))
	})
}

func TestNew_Ports(t *testing.T) {
	t.Setenv("CORE_INDEXING_MIGRATE", "false")
	m := New(
		modkit.Deps{Cfg: config.New(), PG: nopTx{}},
		modkit.WithPorts(domain.Ports{Classifier: nopClassifier{}, Fetcher: nopFetcher{}}),
	)
	if m.Name() != "indexing" {
		t.Fatalf("name = %q", m.Name())
	}
	p, ok := m.Ports().(Ports)
	if !ok || p.Runner == nil || p.Setup == nil {
		t.Fatalf("ports = %#v", m.Ports())
	}
	// migrate off and no clickhouse means nothing to apply
	if err := p.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func mountedIndexing(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("CORE_INDEXING_MIGRATE", "false")
	m := New(
		modkit.Deps{Cfg: config.New(), PG: nopTx{}},
		modkit.WithPorts(domain.Ports{Classifier: nopClassifier{}, Fetcher: nopFetcher{}}),
	)
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))
	return mux
}

func TestMountRoutes_NoAdminTokensRejectsMutations(t *testing.T) {
	t.Setenv("CORE_INDEXING_ADMIN_TOKENS", "")
	h := mountedIndexing(t)

	for _, c := range []struct{ method, path string }{
		{http.MethodDelete, "/indexing/o/r"},
		{http.MethodPost, "/indexing/o/r/run"},
		{http.MethodPost, "/indexing/o/r/reclassify"},
	} {
		for _, token := range []string{"", "anything"} {
			req := httptest.NewRequest(c.method, c.path, nil)
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s token=%q: status %d", c.method, c.path, token, rec.Code)
			}
		}
	}
}

func TestMountRoutes_AdminTokenRequired(t *testing.T) {
	t.Setenv("CORE_INDEXING_ADMIN_TOKENS", "s3cret")
	h := mountedIndexing(t)

	req := httptest.NewRequest(http.MethodDelete, "/indexing/o/r", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status %d", rec.Code)
	}
}
