//go:build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/store"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "gitpulse",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/gitpulse?sslmode=disable", host, port.Port())
}

func openStore(t *testing.T) (context.Context, store.TxRunner) {
	t.Helper()
	dsn := startPostgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	s, err := store.Open(ctx, store.Config{
		AppName: "gitpulse-it",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2},
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := Migrate(ctx, s.PG); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// idempotent
	if err := Migrate(ctx, s.PG); err != nil {
		t.Fatalf("migrate twice: %v", err)
	}
	return ctx, s.PG
}

func TestProgressLifecycle_Integration(t *testing.T) {
	ctx, db := openStore(t)
	r := NewPG().Bind(db)
	const repo = "acme/widgets"

	p, err := r.EnsureProgress(ctx, repo, domain.EntityCommits)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if p.Status != domain.StatusIdle || p.LastIndexedAt != nil || p.TotalIndexed != 0 {
		t.Fatalf("fresh progress = %+v", p)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	ok, err := r.ClaimRun(ctx, repo, domain.EntityCommits, "11111111-1111-1111-1111-111111111111", now, now.Add(-time.Hour))
	if err != nil || !ok {
		t.Fatalf("first claim = %v %v", ok, err)
	}
	ok, err = r.ClaimRun(ctx, repo, domain.EntityCommits, "22222222-2222-2222-2222-222222222222", now, now.Add(-time.Hour))
	if err != nil || ok {
		t.Fatalf("second claim must lose: %v %v", ok, err)
	}
	// stale claims can be taken over
	ok, err = r.ClaimRun(ctx, repo, domain.EntityCommits, "33333333-3333-3333-3333-333333333333", now.Add(2*time.Hour), now.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("stale claim = %v %v", ok, err)
	}

	if err := r.FailRun(ctx, repo, domain.EntityCommits, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	p, _ = r.EnsureProgress(ctx, repo, domain.EntityCommits)
	if p.Status != domain.StatusFailed || p.RetryCount != 1 || p.ErrorMessage != "boom" {
		t.Fatalf("failed progress = %+v", p)
	}

	since := now.Add(-30 * 24 * time.Hour)
	p, err = r.CompleteRun(ctx, repo, domain.EntityCommits, since, 5)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if p.Status != domain.StatusCompleted || p.RetryCount != 0 || p.TotalIndexed != 5 ||
		p.LastIndexedAt == nil || !p.LastIndexedAt.Equal(since) {
		t.Fatalf("completed progress = %+v", p)
	}

	if err := r.ResetProgress(ctx, repo, domain.EntityCommits); err != nil {
		t.Fatalf("reset: %v", err)
	}
	p, _ = r.EnsureProgress(ctx, repo, domain.EntityCommits)
	if p.Status != domain.StatusIdle || p.TotalIndexed != 0 || p.LastIndexedAt != nil {
		t.Fatalf("reset progress = %+v", p)
	}
}

func TestCommits_Integration(t *testing.T) {
	ctx, db := openStore(t)
	r := NewPG().Bind(db)
	const repo = "acme/widgets"

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pr := 7
	rec := domain.CommitRecord{
		SHA: "abc", Repository: repo, Message: "tweak",
		AuthoredAt: at, CommittedAt: at,
		Files:    []gh.File{{Filename: "a.go"}, {Filename: "b.go"}},
		Category: category.Other, Stage: cdom.StageFallback,
		ParentSHAs: []string{"p1"},
		PRNumber:   &pr, PRState: "open",
	}
	created, err := r.UpsertCommit(ctx, rec)
	if err != nil || !created {
		t.Fatalf("insert = %v %v", created, err)
	}
	created, err = r.UpsertCommit(ctx, rec)
	if err != nil || created {
		t.Fatalf("second upsert must update: %v %v", created, err)
	}

	// nil files are stored as an empty list
	_, err = r.UpsertCommit(ctx, domain.CommitRecord{SHA: "def", Repository: repo, Category: category.Fix, Stage: cdom.StagePattern})
	if err != nil {
		t.Fatalf("insert def: %v", err)
	}

	others, err := r.ListByCategory(ctx, repo, category.Other, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(others) != 1 || others[0].SHA != "abc" || len(others[0].Files) != 2 || others[0].Files[1] != "b.go" {
		t.Fatalf("others = %+v", others)
	}

	if err := r.UpdateCategory(ctx, "abc", category.Refactor, cdom.StageOracle); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := r.UpdateCategory(ctx, "missing", category.Fix, cdom.StagePattern); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("update missing err = %v", err)
	}

	counts, err := r.CountByCategory(ctx, repo)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["refactor"] != 1 || counts["fix"] != 1 || counts["other"] != 0 {
		t.Fatalf("counts = %v", counts)
	}
}
