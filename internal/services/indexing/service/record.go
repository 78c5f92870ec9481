package service

import (
	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/core/category"
	cdom "gitpulse/internal/services/classify/domain"
	"gitpulse/internal/services/indexing/domain"
)

// toRecord maps a fetched commit and its classification to the stored form
// the repository name comes from html_url, falling back to ref
func toRecord(ref domain.RepoRef, c gh.Commit, r cdom.Result) domain.CommitRecord {
	repo, ok := c.RepoFullName()
	if !ok {
		repo = ref.FullName()
	}
	rec := domain.CommitRecord{
		SHA:            c.SHA,
		Repository:     repo,
		Message:        c.Commit.Message,
		AuthorName:     c.Commit.Author.Name,
		AuthorEmail:    c.Commit.Author.Email,
		CommitterName:  c.Commit.Committer.Name,
		CommitterEmail: c.Commit.Committer.Email,
		AuthoredAt:     c.Commit.Author.Date,
		CommittedAt:    c.Commit.Committer.Date,
		Additions:      c.Stats.Additions,
		Deletions:      c.Stats.Deletions,
		TotalChanges:   c.Stats.Total,
		Files:          c.Files,
		Category:       r.Category,
		Stage:          r.Stage,
		ParentSHAs:     c.ParentSHAs(),
		TreeSHA:        c.Commit.Tree.SHA,
		URL:            c.HTMLURL,
	}
	if !rec.Category.Valid() {
		rec.Category = category.Other
	}
	if pr := c.PullRequest; pr != nil {
		n := pr.Number
		rec.PRNumber = &n
		rec.PRURL = pr.HTMLURL
		rec.PRState = pr.State
		rec.PRMergedAt = pr.MergedAt
	}
	return rec
}
