package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	perr "gitpulse/internal/platform/errors"
)

// timeLayout is the UTC form the commit list expects for since and until
const timeLayout = "2006-01-02T15:04:05Z"

// ListCommits fetches one page of commit summaries for a window
func (c *Client) ListCommits(ctx context.Context, owner, repo, token string, w Window, page, perPage int) ([]CommitSummary, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("since", w.Since.UTC().Format(timeLayout))
	q.Set("until", w.Until.UTC().Format(timeLayout))

	var out []CommitSummary
	err := c.getJSON(ctx, Request{
		Endpoint: "commits",
		Path:     fmt.Sprintf("/repos/%s/%s/commits", owner, repo),
		Query:    q,
		Accept:   acceptV3,
		Token:    token,
	}, &out)
	return out, err
}

// CommitDetail fetches the full commit document with files and stats
func (c *Client) CommitDetail(ctx context.Context, owner, repo, token, sha string) (Commit, error) {
	var out Commit
	err := c.getJSON(ctx, Request{
		Endpoint: "commit",
		Path:     fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha),
		Accept:   acceptV3,
		Token:    token,
	}, &out)
	return out, err
}

// CommitPulls lists pull requests associated with a commit
func (c *Client) CommitPulls(ctx context.Context, owner, repo, token, sha string) ([]PullRequest, error) {
	var out []PullRequest
	err := c.getJSON(ctx, Request{
		Endpoint: "commit_pulls",
		Path:     fmt.Sprintf("/repos/%s/%s/commits/%s/pulls", owner, repo, sha),
		Accept:   acceptGroots,
		Token:    token,
	}, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, r Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", r.Path).Msg("github close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read %s body", r.Endpoint)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "github decode %s", r.Endpoint)
	}
	return nil
}
