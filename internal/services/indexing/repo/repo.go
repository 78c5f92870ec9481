// Package repo provides postgres access for indexing progress and commits
package repo

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	"gitpulse/internal/modkit/repokit"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/store"
	ptime "gitpulse/internal/platform/time"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"
)

//go:embed schema.sql
var schemaSQL string

type (
	// PG is a Postgres binder for domain.StorageRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.StorageRepo
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

// Migrate creates the tables when missing
func Migrate(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return perr.FromPostgresf(err, "apply indexing schema")
	}
	return nil
}

const progressCols = `
	repository_full_name, entity_type, status, last_indexed_at, last_run_at,
	total_indexed, retry_count, COALESCE(error_message, ''), COALESCE(run_id::text, ''), updated_at`

func scanProgress(r store.Row) (domain.Progress, error) {
	var p domain.Progress
	var status string
	err := r.Scan(
		&p.Repository, &p.EntityType, &status, &p.LastIndexedAt, &p.LastRunAt,
		&p.TotalIndexed, &p.RetryCount, &p.ErrorMessage, &p.RunID, &p.UpdatedAt,
	)
	p.Status = domain.Status(status)
	return p, err
}

// EnsureProgress creates an idle row on first use and returns the current row
func (r *queries) EnsureProgress(ctx context.Context, repo, entity string) (domain.Progress, error) {
	if _, err := r.q.Exec(ctx, `
		INSERT INTO indexing_progress (repository_full_name, entity_type)
		VALUES ($1, $2)
		ON CONFLICT (repository_full_name, entity_type) DO NOTHING
	`, repo, entity); err != nil {
		return domain.Progress{}, perr.FromPostgresf(err, "ensure progress %s", repo)
	}
	p, err := store.One(ctx, r.q, scanProgress, `
		SELECT `+progressCols+`
		FROM indexing_progress
		WHERE repository_full_name = $1 AND entity_type = $2
	`, repo, entity)
	if err != nil {
		return domain.Progress{}, perr.WrapIf(err, perr.ErrorCodeDB, "read progress")
	}
	return p, nil
}

// ClaimRun only succeeds when the row is not running or its run went stale
func (r *queries) ClaimRun(ctx context.Context, repo, entity, runID string, at, staleBefore time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE indexing_progress
		SET status = 'running', last_run_at = $3, run_id = $4::uuid, updated_at = now()
		WHERE repository_full_name = $1 AND entity_type = $2
			AND (status <> 'running' OR last_run_at IS NULL OR last_run_at < $5)
	`, repo, entity, at.UTC(), runID, staleBefore.UTC())
	if err != nil {
		return false, perr.FromPostgresf(err, "claim run %s", repo)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteRun moves the resume point back to lastIndexed and adds created to the total
func (r *queries) CompleteRun(ctx context.Context, repo, entity string, lastIndexed time.Time, created int) (domain.Progress, error) {
	p, err := store.One(ctx, r.q, scanProgress, `
		UPDATE indexing_progress
		SET status = 'completed',
			last_indexed_at = $3,
			total_indexed = total_indexed + $4,
			retry_count = 0,
			error_message = NULL,
			updated_at = now()
		WHERE repository_full_name = $1 AND entity_type = $2
		RETURNING `+progressCols, repo, entity, lastIndexed.UTC(), created)
	if err != nil {
		return domain.Progress{}, perr.WrapIf(err, perr.ErrorCodeDB, "complete run")
	}
	return p, nil
}

// FailRun stores the error text and bumps retry_count
func (r *queries) FailRun(ctx context.Context, repo, entity, errText string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE indexing_progress
		SET status = 'failed',
			error_message = NULLIF($3, ''),
			retry_count = retry_count + 1,
			updated_at = now()
		WHERE repository_full_name = $1 AND entity_type = $2
	`, repo, entity, errText)
	if err != nil {
		return perr.FromPostgresf(err, "fail run %s", repo)
	}
	return nil
}

// ResetProgress returns the row to idle
func (r *queries) ResetProgress(ctx context.Context, repo, entity string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO indexing_progress (repository_full_name, entity_type)
		VALUES ($1, $2)
		ON CONFLICT (repository_full_name, entity_type) DO UPDATE
		SET status = 'idle',
			last_indexed_at = NULL,
			total_indexed = 0,
			retry_count = 0,
			error_message = NULL,
			run_id = NULL,
			updated_at = now()
	`, repo, entity)
	if err != nil {
		return perr.FromPostgresf(err, "reset progress %s", repo)
	}
	return nil
}

// UpsertCommit writes a commit keyed by sha
// xmax is zero only for a freshly inserted tuple
func (r *queries) UpsertCommit(ctx context.Context, c domain.CommitRecord) (bool, error) {
	files := c.Files
	if files == nil {
		files = []gh.File{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeJSON, "encode files of %s", c.SHA)
	}
	parents := c.ParentSHAs
	if parents == nil {
		parents = []string{}
	}

	created, err := store.Scalar[bool](ctx, r.q, `
		INSERT INTO commits (
			sha, repository_full_name, message,
			author_name, author_email, committer_name, committer_email,
			authored_at, committed_at,
			additions, deletions, total_changes, files_changed,
			category, classify_stage, parent_shas, tree_sha, url,
			pr_number, pr_url, pr_state, pr_merged_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9,
			$10, $11, $12, $13::jsonb,
			$14, $15, $16, $17, $18,
			$19, NULLIF($20, ''), NULLIF($21, ''), $22
		)
		ON CONFLICT (sha) DO UPDATE SET
			repository_full_name = EXCLUDED.repository_full_name,
			message = EXCLUDED.message,
			author_name = EXCLUDED.author_name,
			author_email = EXCLUDED.author_email,
			committer_name = EXCLUDED.committer_name,
			committer_email = EXCLUDED.committer_email,
			authored_at = EXCLUDED.authored_at,
			committed_at = EXCLUDED.committed_at,
			additions = EXCLUDED.additions,
			deletions = EXCLUDED.deletions,
			total_changes = EXCLUDED.total_changes,
			files_changed = EXCLUDED.files_changed,
			category = EXCLUDED.category,
			classify_stage = EXCLUDED.classify_stage,
			parent_shas = EXCLUDED.parent_shas,
			tree_sha = EXCLUDED.tree_sha,
			url = EXCLUDED.url,
			pr_number = EXCLUDED.pr_number,
			pr_url = EXCLUDED.pr_url,
			pr_state = EXCLUDED.pr_state,
			pr_merged_at = EXCLUDED.pr_merged_at,
			updated_at = now()
		RETURNING (xmax = 0)
	`,
		c.SHA, c.Repository, c.Message,
		c.AuthorName, c.AuthorEmail, c.CommitterName, c.CommitterEmail,
		ptime.Ptr(c.AuthoredAt), ptime.Ptr(c.CommittedAt),
		c.Additions, c.Deletions, c.TotalChanges, string(filesJSON),
		string(c.Category), string(c.Stage), parents, c.TreeSHA, c.URL,
		c.PRNumber, c.PRURL, c.PRState, c.PRMergedAt,
	)
	if err != nil {
		return false, perr.FromPostgresf(err, "upsert commit %s", c.SHA)
	}
	return created, nil
}

// ListByCategory returns the newest commits first
func (r *queries) ListByCategory(ctx context.Context, repo string, c category.Category, limit int) ([]domain.StoredCommit, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.q.Query(ctx, `
		SELECT sha, message,
			ARRAY(SELECT COALESCE(f ->> 'filename', '') FROM jsonb_array_elements(files_changed) AS f),
			COALESCE(committed_at, indexed_at)
		FROM commits
		WHERE repository_full_name = $1 AND category = $2
		ORDER BY committed_at DESC NULLS LAST
		LIMIT $3
	`, repo, string(c), limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list %s commits of %s", c, repo)
	}
	defer rows.Close()

	var out []domain.StoredCommit
	for rows.Next() {
		var sc domain.StoredCommit
		if err := rows.Scan(&sc.SHA, &sc.Message, &sc.Files, &sc.CommittedAt); err != nil {
			return nil, perr.FromPostgresf(err, "scan commit")
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// UpdateCategory rewrites one commit's category
func (r *queries) UpdateCategory(ctx context.Context, sha string, c category.Category, stage cdom.Stage) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE commits SET category = $2, classify_stage = $3, updated_at = now()
		WHERE sha = $1
	`, sha, string(c), string(stage))
	if err != nil {
		return perr.FromPostgresf(err, "update category of %s", sha)
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("commit %s not found", sha)
	}
	return nil
}

// CountByCategory groups stored commits of repo by category
func (r *queries) CountByCategory(ctx context.Context, repo string) (map[string]uint64, error) {
	type kv struct {
		cat string
		n   int64
	}
	rows, err := store.Many(ctx, r.q, func(row store.Row) (kv, error) {
		var x kv
		err := row.Scan(&x.cat, &x.n)
		return x, err
	}, `
		SELECT category, count(*) FROM commits
		WHERE repository_full_name = $1
		GROUP BY category
	`, repo)
	if err != nil {
		return nil, perr.FromPostgresf(err, "count categories of %s", repo)
	}
	out := make(map[string]uint64, len(rows))
	for _, x := range rows {
		out[x.cat] = uint64(x.n)
	}
	return out, nil
}
