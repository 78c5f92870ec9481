// Package ollama provides a rate limited, circuit broken Ollama client used as
// the last resort commit classifier
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gitpulse/internal/core/category"
	"gitpulse/internal/core/pattern"
	perr "gitpulse/internal/platform/errors"
	"gitpulse/internal/platform/logger"
	"gitpulse/internal/platform/metrics"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "gemma3:1b"
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.3
	defaultMaxTokens   = 10
	defaultFailures    = 5
	defaultOpenFor     = 30 * time.Second
)

// Config configures the Client, zero values take defaults
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	// RPS caps generate calls per second, zero means unlimited
	RPS   float64
	Burst int

	// BreakerFailures consecutive failures open the breaker for BreakerOpenFor
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Client is the language model oracle
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     logger.Logger
	now     func() time.Time
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Done     bool   `json:"done"`
}

// New builds a Client from an explicit Config
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = defaultFailures
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = defaultOpenFor
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := max(cfg.Burst, 1)
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	log := *logger.Named("ollama")
	failures := uint32(cfg.BreakerFailures)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ollama",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("ollama breaker state change")
		},
	})

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: lim,
		breaker: cb,
		log:     log,
		now:     time.Now,
	}
}

// Config returns the effective configuration
func (c *Client) Config() Config { return c.cfg }

// Classify asks the model for a category and never fails
// any error degrades to the pattern classifier
func (c *Client) Classify(ctx context.Context, message string) (out category.Category) {
	if strings.TrimSpace(message) == "" {
		return category.Other
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("ollama classify panicked")
			out = pattern.Classify(message)
		}
	}()

	text, err := c.Generate(ctx, Prompt(message))
	if err != nil {
		c.log.Debug().Err(err).Msg("ollama unavailable using pattern fallback")
		return pattern.Classify(message)
	}
	return Extract(text, message)
}

// Generate sends one non streaming generate call and returns the response text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "ollama rate limit wait")
	}

	start := c.now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, prompt)
	})
	lat := c.now().Sub(start)
	if err != nil {
		metrics.OracleRequest(outcome(err), lat)
		return "", err
	}
	metrics.OracleRequest("ok", lat)
	return out.(string), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.cfg.Temperature,
			NumPredict:  c.cfg.MaxTokens,
		},
	})
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "ollama encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "ollama new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "ollama generate")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", perr.Newf(perr.ErrorCodeUnavailable, "ollama generate status %d body %s", resp.StatusCode, string(tail))
	}

	var gr generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&gr); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "ollama decode response")
	}
	return gr.Response, nil
}

// Models lists locally available models
func (c *Client) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "ollama new request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "ollama list models")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "ollama list models status %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "ollama decode models")
	}
	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Ping reports whether the server answers and has the configured model
func (c *Client) Ping(ctx context.Context) error {
	names, err := c.Models(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == c.cfg.Model || strings.HasPrefix(n, c.cfg.Model+":") {
			return nil
		}
	}
	return perr.NotFoundf("ollama model %s not pulled", c.cfg.Model)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case perr.IsCode(err, perr.ErrorCodeJSON):
		return "parse_error"
	default:
		return "error"
	}
}
