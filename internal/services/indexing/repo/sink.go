package repo

import (
	"context"

	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/store"
	"gitpulse/internal/services/indexing/domain"
)

// CategoriesTable is the clickhouse analytics table
const CategoriesTable = "commit_categories"

const categoriesDDL = `
CREATE TABLE IF NOT EXISTS commit_categories (
	repository    String,
	sha           String,
	category      LowCardinality(String),
	stage         LowCardinality(String),
	committed_at  DateTime64(3, 'UTC'),
	classified_at DateTime64(3, 'UTC')
)
ENGINE = ReplacingMergeTree(classified_at)
ORDER BY (repository, sha)`

// CHSink writes category rows to clickhouse
type CHSink struct {
	ch store.Clickhouse
}

var _ domain.AnalyticsSink = (*CHSink)(nil)

// NewCHSink wraps a clickhouse seam
func NewCHSink(ch store.Clickhouse) *CHSink { return &CHSink{ch: ch} }

// EnsureTable creates commit_categories when missing
func (s *CHSink) EnsureTable(ctx context.Context) error {
	return s.ch.Exec(ctx, categoriesDDL)
}

// WriteCategories appends rows in one batch
func (s *CHSink) WriteCategories(ctx context.Context, rows []domain.CategoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{
			r.Repository, r.SHA, string(r.Category), string(r.Stage),
			r.CommittedAt.UTC(), r.ClassifiedAt.UTC(),
		})
	}
	if err := s.ch.Insert(ctx, CategoriesTable, data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "write %d category rows", len(rows))
	}
	return nil
}

// Stats reads per category counts for a repository
func (s *CHSink) Stats(ctx context.Context, repo string) (map[string]uint64, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT category, count() FROM commit_categories FINAL
		WHERE repository = ?
		GROUP BY category
	`, repo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]uint64{}
	for rows.Next() {
		var cat string
		var n uint64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan category stats")
		}
		out[cat] = n
	}
	return out, rows.Err()
}
