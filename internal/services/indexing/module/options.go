package module

import (
	"time"

	gh "gitpulse/internal/adapters/ingest/github"
	"gitpulse/internal/platform/config"
	"gitpulse/internal/services/indexing/guardrails"
	"gitpulse/internal/services/indexing/service"
)

// Options controls the orchestrator, its github client and the analytics sink
type Options struct {
	BatchDays   int
	MinInterval time.Duration
	MaxRetries  int
	StaleAfter  time.Duration
	EmptyStop   int
	Delay       time.Duration
	Timeouts    guardrails.Timeouts

	// Analytics writes categories to clickhouse when a client is available
	Analytics bool
	// Migrate applies the postgres schema on boot
	Migrate bool
	// AdminTokens guard the mutating routes, empty rejects every caller
	AdminTokens []string

	GitHub  gh.Options
	Fetcher gh.FetcherOptions
}

// FromConfig reads CORE_INDEXING_* and CORE_GITHUB_* values
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("CORE_INDEXING_")
	gc := cfg.Prefix("CORE_GITHUB_")
	return Options{
		BatchDays:   ic.MayInt("BATCH_DAYS", 30),
		MinInterval: ic.MayDuration("MIN_INTERVAL", 0),
		MaxRetries:  ic.MayInt("MAX_RETRIES", 3),
		StaleAfter:  ic.MayDuration("STALE_AFTER", time.Hour),
		EmptyStop:   ic.MayInt("EMPTY_STOP", 3),
		Delay:       ic.MayDuration("DELAY", 0),
		Timeouts: guardrails.Timeouts{
			Batch:    ic.MayDuration("BATCH_TIMEOUT", 30*time.Minute),
			Fetch:    ic.MayDuration("FETCH_TIMEOUT", 20*time.Minute),
			Classify: ic.MayDuration("CLASSIFY_TIMEOUT", 10*time.Minute),
			DB:       ic.MayDuration("DB_TIMEOUT", 10*time.Second),
		},
		Analytics:   ic.MayBool("ANALYTICS", true),
		Migrate:     ic.MayBool("MIGRATE", true),
		AdminTokens: ic.MayCSV("ADMIN_TOKENS", nil),
		GitHub: gh.Options{
			BaseURL:    gc.MayString("BASE_URL", "https://api.github.com"),
			UserAgent:  gc.MayString("UA", "gitpulse-indexer"),
			Timeout:    gc.MayDuration("TIMEOUT", 30*time.Second),
			TokensCSV:  gc.MayString("TOKENS", ""),
			MaxRetries: gc.MayInt("MAX_RETRIES", 5),
			RetryBase:  gc.MayDuration("RETRY_BASE", 500*time.Millisecond),
		},
		Fetcher: gh.FetcherOptions{
			PageSize:         gc.MayInt("PAGE_SIZE", 100),
			MaxPages:         gc.MayInt("MAX_PAGES", 50),
			SkipPullRequests: gc.MayBool("SKIP_PULLS", false),
		},
	}
}

// ServiceConfig maps options to the orchestrator config
func (o Options) ServiceConfig() service.Config {
	return service.Config{
		BatchDays:   o.BatchDays,
		MinInterval: o.MinInterval,
		MaxRetries:  o.MaxRetries,
		StaleAfter:  o.StaleAfter,
		EmptyStop:   o.EmptyStop,
		Delay:       o.Delay,
		Timeouts:    o.Timeouts,
	}
}
