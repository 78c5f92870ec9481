package github

import (
	"net/url"
	"strings"
	"time"
)

// CommitSummary is one item of the commit list endpoint
type CommitSummary struct {
	SHA string `json:"sha"`
}

// Signature is an author or committer identity with timestamp
type Signature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// CommitData is the git level part of a commit document
type CommitData struct {
	Author    Signature `json:"author"`
	Committer Signature `json:"committer"`
	Message   string    `json:"message"`
	Tree      struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

// Stats are line counts for a commit
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// File is one changed file of a commit
type File struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Status    string `json:"status"`
	Patch     string `json:"patch,omitempty"`
}

// Parent references a parent commit
type Parent struct {
	SHA string `json:"sha"`
}

// PullRequest is the summary of the first pull request linked to a commit
type PullRequest struct {
	Number   int        `json:"number"`
	HTMLURL  string     `json:"html_url"`
	State    string     `json:"state"`
	MergedAt *time.Time `json:"merged_at"`
}

// Commit is the full commit detail document
type Commit struct {
	SHA     string     `json:"sha"`
	HTMLURL string     `json:"html_url"`
	URL     string     `json:"url"`
	Commit  CommitData `json:"commit"`
	Stats   Stats      `json:"stats"`
	Files   []File     `json:"files"`
	Parents []Parent   `json:"parents"`

	// PullRequest is filled by the fetcher, nil when no linkage was found
	PullRequest *PullRequest `json:"-"`
}

// FileNames returns the changed file names in order
func (c Commit) FileNames() []string {
	out := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		out = append(out, f.Filename)
	}
	return out
}

// ParentSHAs returns the parent shas in order
func (c Commit) ParentSHAs() []string {
	out := make([]string, 0, len(c.Parents))
	for _, p := range c.Parents {
		out = append(out, p.SHA)
	}
	return out
}

// RepoFullName parses owner/name out of html_url
// e.g. https://github.com/o/r/commit/abc yields o/r
func (c Commit) RepoFullName() (string, bool) {
	u, err := url.Parse(c.HTMLURL)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}
