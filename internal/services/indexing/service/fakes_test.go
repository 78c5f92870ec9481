package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	"gitpulse/internal/modkit/repokit"
	"gitpulse/internal/platform/store"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx runs fn inline, repos ignore the queryer
type fakeTx struct{ txs int }

func (f *fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.txs++
	return fn(f)
}
func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }

type memRepo struct {
	mu       sync.Mutex
	progress map[string]*domain.Progress
	commits  map[string]domain.CommitRecord
	failSHA  map[string]bool
	// conflictSHA fails the first upsert of a sha with a serialization failure
	conflictSHA map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		progress: map[string]*domain.Progress{},
		commits:  map[string]domain.CommitRecord{},
		failSHA:  map[string]bool{},

		conflictSHA: map[string]bool{},
	}
}

func (m *memRepo) binder() repokit.Binder[domain.StorageRepo] {
	return repokit.BindFunc[domain.StorageRepo](func(repokit.Queryer) domain.StorageRepo { return m })
}

func (m *memRepo) get(repo string) domain.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.progress[repo]; ok {
		return *p
	}
	return domain.Progress{}
}

func (m *memRepo) set(p domain.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[p.Repository] = &p
}

func (m *memRepo) EnsureProgress(_ context.Context, repo, entity string) (domain.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[repo]
	if !ok {
		p = &domain.Progress{Repository: repo, EntityType: entity, Status: domain.StatusIdle}
		m.progress[repo] = p
	}
	return *p, nil
}

func (m *memRepo) ClaimRun(_ context.Context, repo, _ string, runID string, at, staleBefore time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[repo]
	if p.Status == domain.StatusRunning && p.LastRunAt != nil && !p.LastRunAt.Before(staleBefore) {
		return false, nil
	}
	p.Status = domain.StatusRunning
	p.LastRunAt = &at
	p.RunID = runID
	return true, nil
}

func (m *memRepo) CompleteRun(_ context.Context, repo, _ string, lastIndexed time.Time, created int) (domain.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[repo]
	p.Status = domain.StatusCompleted
	p.LastIndexedAt = &lastIndexed
	p.TotalIndexed += int64(created)
	p.RetryCount = 0
	p.ErrorMessage = ""
	return *p, nil
}

func (m *memRepo) FailRun(_ context.Context, repo, _ string, errText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.progress[repo]
	p.Status = domain.StatusFailed
	p.ErrorMessage = errText
	p.RetryCount++
	return nil
}

func (m *memRepo) ResetProgress(_ context.Context, repo, entity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[repo] = &domain.Progress{Repository: repo, EntityType: entity, Status: domain.StatusIdle}
	return nil
}

func (m *memRepo) UpsertCommit(_ context.Context, c domain.CommitRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSHA[c.SHA] {
		return false, errors.New("constraint violated")
	}
	if m.conflictSHA[c.SHA] {
		delete(m.conflictSHA, c.SHA)
		return false, &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	_, existed := m.commits[c.SHA]
	m.commits[c.SHA] = c
	return !existed, nil
}

func (m *memRepo) ListByCategory(_ context.Context, repo string, c category.Category, limit int) ([]domain.StoredCommit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StoredCommit
	for _, rec := range m.commits {
		if rec.Repository != repo || rec.Category != c {
			continue
		}
		files := make([]string, 0, len(rec.Files))
		for _, f := range rec.Files {
			files = append(files, f.Filename)
		}
		out = append(out, domain.StoredCommit{SHA: rec.SHA, Message: rec.Message, Files: files, CommittedAt: rec.CommittedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SHA < out[j].SHA })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateCategory(_ context.Context, sha string, c category.Category, stage cdom.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.commits[sha]
	if !ok {
		return errors.New("missing")
	}
	rec.Category = c
	rec.Stage = stage
	m.commits[sha] = rec
	return nil
}

func (m *memRepo) CountByCategory(_ context.Context, repo string) (map[string]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]uint64{}
	for _, rec := range m.commits {
		if rec.Repository == repo {
			out[string(rec.Category)]++
		}
	}
	return out, nil
}

type fetchCall struct {
	owner, repo, token string
	w                  domain.Window
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	fn    func(call int, w domain.Window) ([]gh.Commit, error)
}

func (f *fakeFetcher) Fetch(_ context.Context, owner, repo, token string, w domain.Window) ([]gh.Commit, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{owner, repo, token, w})
	n := len(f.calls)
	f.mu.Unlock()
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(n, w)
}

type fakeClassifier struct {
	batchErr  error
	perItem   int
	batchSeen int
	fn        func(cdom.Input) cdom.Result
}

func (f *fakeClassifier) Classify(_ context.Context, in cdom.Input) cdom.Result {
	f.perItem++
	return f.fn(in)
}

func (f *fakeClassifier) ClassifyBatchDetailed(_ context.Context, in []cdom.Input) ([]cdom.Result, error) {
	f.batchSeen++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([]cdom.Result, len(in))
	for i, x := range in {
		out[i] = f.fn(x)
	}
	return out, nil
}

type memSink struct {
	rows []domain.CategoryRow
	err  error
}

func (s *memSink) WriteCategories(_ context.Context, rows []domain.CategoryRow) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, rows...)
	return nil
}

type fakeStats struct {
	m   map[string]uint64
	err error
}

func (f fakeStats) Stats(context.Context, string) (map[string]uint64, error) { return f.m, f.err }

func commit(sha, msg string, files ...string) gh.Commit {
	c := gh.Commit{SHA: sha, HTMLURL: "https://github.com/acme/widgets/commit/" + sha}
	c.Commit.Message = msg
	c.Commit.Committer.Date = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, f := range files {
		c.Files = append(c.Files, gh.File{Filename: f})
	}
	return c
}
