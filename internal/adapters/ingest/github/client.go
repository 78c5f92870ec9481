// Package github is a GitHub REST v3 client with token rotation and retries,
// plus the windowed commit fetcher built on it
package github

import (
	"cmp"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"
)

const (
	baseURLDefault   = "https://api.github.com"
	defaultTimeout   = 30 * time.Second
	defaultUA        = "gitpulse-indexer"
	defaultMaxRetry  = 5
	defaultRetryBase = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second

	acceptDefault = "application/vnd.github+json"
	acceptV3      = "application/vnd.github.v3+json"
	acceptGroots  = "application/vnd.github.groot-preview+json"
)

// final marks an attempt whose outcome is returned as is
const final time.Duration = -1

// Options configures the Client, zero values take defaults
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// TokensCSV is rotated round robin, Request.Token overrides it
	TokensCSV string

	// MaxRetries bounds retries of transport errors, 5xx and rate limits
	// negative disables retrying
	MaxRetries int
	RetryBase  time.Duration
}

// Client issues GETs against the API
type Client struct {
	http   *http.Client
	opts   Options
	tokens []string
	cur    atomic.Int32
	log    logger.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// Request is one GET
type Request struct {
	// Endpoint labels metrics and logs, keep it low cardinality
	Endpoint string
	Path     string
	Query    url.Values
	Accept   string
	Token    string
}

func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(cmp.Or(o.BaseURL, baseURLDefault), "/")
	o.UserAgent = cmp.Or(o.UserAgent, defaultUA)
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	switch {
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	case o.MaxRetries == 0:
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}

	c := &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("github"),
		now:   time.Now,
		sleep: sleepCtx,
	}
	for t := range strings.SplitSeq(o.TokensCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.tokens = append(c.tokens, t)
		}
	}
	return c
}

// token is the request's own token or the next one in rotation
func (c *Client) token(r Request) string {
	if r.Token != "" || len(c.tokens) == 0 {
		return r.Token
	}
	n := int(c.cur.Add(1))
	return c.tokens[n%len(c.tokens)]
}

// Do GETs r and returns the open response of a 200
// any other status is a *StatusError carrying a perr code
func (c *Client) Do(ctx context.Context, r Request) (*http.Response, error) {
	u := c.opts.BaseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	for attempt := 0; ; attempt++ {
		resp, wait, err := c.try(ctx, r, u, attempt)
		if wait < 0 || attempt >= c.opts.MaxRetries {
			return resp, err
		}
		c.log.Warn().Err(err).
			Str("endpoint", r.Endpoint).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("github request retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// try makes one request, wait is the pause before retrying or final
func (c *Client) try(ctx context.Context, r Request, u string, attempt int) (*http.Response, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return nil, final, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, final, perr.Wrapf(err, perr.ErrorCodeUnknown, "github build %s request", r.Endpoint)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", cmp.Or(r.Accept, acceptDefault))
	if tok := c.token(r); tok != "" {
		req.Header.Set("Authorization", "token "+tok)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s failed", r.Endpoint)
		if ctx.Err() != nil {
			return nil, final, err
		}
		return nil, c.backoff(attempt), err
	}

	rl := readRate(resp.Header)
	metrics.FetchResponse(r.Endpoint, resp.StatusCode)
	c.log.Debug().
		Str("endpoint", r.Endpoint).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Int("attempt", attempt).
		Dur("latency", c.now().Sub(start)).
		Int("rate_remaining", rl.remaining).
		Msg("github http response")

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, final, nil
	case http.StatusTooManyRequests, http.StatusForbidden:
		wait := rl.wait(c.now())
		if wait <= 0 {
			wait = c.backoff(attempt)
		}
		return nil, wait, statusError(resp, perr.ErrorCodeTooManyRequests, r.Endpoint)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, c.backoff(attempt), statusError(resp, perr.ErrorCodeUnavailable, r.Endpoint)
	case http.StatusConflict:
		return nil, final, statusError(resp, perr.ErrorCodeConflict, r.Endpoint)
	case http.StatusNotFound:
		return nil, final, statusError(resp, perr.ErrorCodeNotFound, r.Endpoint)
	case http.StatusUnauthorized:
		return nil, final, statusError(resp, perr.ErrorCodeUnauthorized, r.Endpoint)
	default:
		return nil, final, statusError(resp, perr.ErrorCodeUnknown, r.Endpoint)
	}
}

// backoff doubles RetryBase per attempt up to maxBackoff
func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << min(attempt, 16)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// statusError keeps a short body tail and closes the response
func statusError(resp *http.Response, code perr.ErrorCode, endpoint string) error {
	tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	_ = resp.Body.Close()
	return &StatusError{
		Status: resp.StatusCode,
		Body:   string(tail),
		err:    perr.Newf(code, "github %s unexpected status %d", endpoint, resp.StatusCode),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
