package domain

import (
	"context"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	cdom "gitpulse/internal/services/classify/domain"
)

// RunnerPort is the public port exposed by the module
type RunnerPort interface {
	RunBatch(ctx context.Context, ref RepoRef) (BatchResult, error)
	RunUntil(ctx context.Context, ref RepoRef, floor time.Time, maxBatches int) (RunSummary, error)
	Reset(ctx context.Context, ref RepoRef) error
	Info(ctx context.Context, ref RepoRef) (Info, error)
	ReclassifyOther(ctx context.Context, ref RepoRef, limit int) (ReclassifyResult, error)
	Categories(ctx context.Context, ref RepoRef) (map[string]uint64, error)
}

// Fetcher pages the commits of one window
type Fetcher interface {
	Fetch(ctx context.Context, owner, repo, token string, w Window) ([]gh.Commit, error)
}

// Classifier is the cascade as the orchestrator needs it
type Classifier interface {
	Classify(ctx context.Context, in cdom.Input) cdom.Result
	ClassifyBatchDetailed(ctx context.Context, in []cdom.Input) ([]cdom.Result, error)
}

// StorageRepo is the postgres repository, bound per transaction
type StorageRepo interface {
	// EnsureProgress returns the progress row, creating an idle one when missing
	EnsureProgress(ctx context.Context, repo, entity string) (Progress, error)

	// ClaimRun flips a row to running unless another run holds it
	// a running row whose last run started before staleBefore counts as abandoned
	ClaimRun(ctx context.Context, repo, entity, runID string, at, staleBefore time.Time) (bool, error)

	// CompleteRun records a successful window
	CompleteRun(ctx context.Context, repo, entity string, lastIndexed time.Time, created int) (Progress, error)

	// FailRun records a failed window and bumps the retry count
	FailRun(ctx context.Context, repo, entity, errText string) error

	// ResetProgress returns the row to idle with zero totals
	ResetProgress(ctx context.Context, repo, entity string) error

	// UpsertCommit inserts or updates by sha, created is true on insert
	UpsertCommit(ctx context.Context, c CommitRecord) (created bool, err error)

	// ListByCategory returns stored commits of a repository with the given category
	ListByCategory(ctx context.Context, repo string, c category.Category, limit int) ([]StoredCommit, error)

	// UpdateCategory rewrites the category of one commit
	UpdateCategory(ctx context.Context, sha string, c category.Category, stage cdom.Stage) error

	// CountByCategory returns stored commit counts per category
	CountByCategory(ctx context.Context, repo string) (map[string]uint64, error)
}

// AnalyticsSink receives classified rows, it is optional
type AnalyticsSink interface {
	WriteCategories(ctx context.Context, rows []CategoryRow) error
}

// StatsReader reads per category counts from the analytics store
type StatsReader interface {
	Stats(ctx context.Context, repo string) (map[string]uint64, error)
}

// Ports are the dependencies injected into the indexing module
// a nil Fetcher builds the github fetcher from config
type Ports struct {
	Classifier Classifier
	Fetcher    Fetcher
}
