// Package domain holds the indexing types and ports
package domain

import (
	"strings"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	perr "gitpulse/internal/platform/errors"
	cdom "gitpulse/internal/services/classify/domain"
)

// Window is the half open [since, until) range a batch covers
type Window = gh.Window

// EntityCommits is the only entity type tracked today
const EntityCommits = "commits"

// Status is the lifecycle state of an indexing progress row
type Status string

const (
	// StatusIdle is a fresh or reset row
	StatusIdle Status = "idle"
	// StatusRunning is held while a batch is in flight
	StatusRunning Status = "running"
	// StatusCompleted marks the last batch as successful
	StatusCompleted Status = "completed"
	// StatusFailed marks the last batch as failed
	StatusFailed Status = "failed"
)

// RepoRef names a repository
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns owner/name
func (r RepoRef) FullName() string { return r.Owner + "/" + r.Name }

// Validate rejects empty or slash bearing parts
func (r RepoRef) Validate() error {
	if strings.TrimSpace(r.Owner) == "" || strings.TrimSpace(r.Name) == "" {
		return perr.InvalidArgf("repository owner and name are required")
	}
	if strings.Contains(r.Owner, "/") || strings.Contains(r.Name, "/") {
		return perr.InvalidArgf("invalid repository %q", r.FullName())
	}
	return nil
}

// ParseRepoRef parses owner/name
func ParseRepoRef(full string) (RepoRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(full), "/")
	if !ok {
		return RepoRef{}, perr.InvalidArgf("invalid repository %q (want owner/repo)", full)
	}
	r := RepoRef{Owner: owner, Name: name}
	return r, r.Validate()
}

// Progress is the resumable indexing state of one repository
type Progress struct {
	Repository    string     `json:"repository"`
	EntityType    string     `json:"entity_type"`
	Status        Status     `json:"status"`
	LastIndexedAt *time.Time `json:"last_indexed_at,omitempty"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	TotalIndexed  int64      `json:"total_indexed"`
	RetryCount    int        `json:"retry_count"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CommitRecord is the persisted form of one fetched commit
type CommitRecord struct {
	SHA        string
	Repository string
	Message    string

	AuthorName     string
	AuthorEmail    string
	CommitterName  string
	CommitterEmail string
	AuthoredAt     time.Time
	CommittedAt    time.Time

	Additions    int
	Deletions    int
	TotalChanges int
	Files        []gh.File

	Category category.Category
	Stage    cdom.Stage

	ParentSHAs []string
	TreeSHA    string
	URL        string

	PRNumber   *int
	PRURL      string
	PRState    string
	PRMergedAt *time.Time
}

// StoredCommit is the subset reread for reclassification
type StoredCommit struct {
	SHA         string
	Message     string
	Files       []string
	CommittedAt time.Time
}

// CategoryRow is one analytics row
type CategoryRow struct {
	Repository   string
	SHA          string
	Category     category.Category
	Stage        cdom.Stage
	CommittedAt  time.Time
	ClassifiedAt time.Time
}

// BatchStatus is the outcome of one RunBatch call
type BatchStatus string

const (
	// BatchSuccess means the window was fetched and persisted
	BatchSuccess BatchStatus = "success"
	// BatchSkipped means the run was not allowed to start
	BatchSkipped BatchStatus = "skipped"
)

// BatchResult reports one window
type BatchResult struct {
	Status       BatchStatus `json:"status"`
	Reason       string      `json:"reason,omitempty"`
	Repository   string      `json:"repository"`
	RunID        string      `json:"run_id,omitempty"`
	Window       *Window     `json:"window,omitempty"`
	Fetched      int         `json:"fetched"`
	Created      int         `json:"created"`
	Updated      int         `json:"updated"`
	Failed       int         `json:"failed"`
	Skipped      int         `json:"skipped"`
	TotalIndexed int64       `json:"total_indexed"`
}

// Info is the progress plus the window the next batch would cover
type Info struct {
	Progress   Progress `json:"progress"`
	NextWindow Window   `json:"next_window"`
	// CanRun is false when a run started now would be skipped for SkipReason
	CanRun     bool   `json:"can_run"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// RunSummary aggregates a RunUntil loop
type RunSummary struct {
	Batches    int    `json:"batches"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	Failed     int    `json:"failed"`
	StopReason string `json:"stop_reason"`
}

// ReclassifyResult reports a ReclassifyOther pass
type ReclassifyResult struct {
	Scanned int `json:"scanned"`
	Changed int `json:"changed"`
	Failed  int `json:"failed"`
}
