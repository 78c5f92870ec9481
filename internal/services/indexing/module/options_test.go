package module

import (
	"testing"
	"time"

	"gitpulse/internal/platform/config"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.BatchDays != 30 || o.MaxRetries != 3 || o.StaleAfter != time.Hour || o.EmptyStop != 3 {
		t.Fatalf("got %+v", o)
	}
	if !o.Analytics || !o.Migrate {
		t.Fatalf("analytics and migrate default on: %+v", o)
	}
	if o.Fetcher.PageSize != 100 || o.Fetcher.MaxPages != 50 || o.Fetcher.SkipPullRequests {
		t.Fatalf("fetcher %+v", o.Fetcher)
	}
	if o.GitHub.BaseURL != "https://api.github.com" || o.GitHub.MaxRetries != 5 {
		t.Fatalf("github %+v", o.GitHub)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("CORE_INDEXING_BATCH_DAYS", "7")
	t.Setenv("CORE_INDEXING_MIN_INTERVAL", "15m")
	t.Setenv("CORE_INDEXING_DB_TIMEOUT", "2s")
	t.Setenv("CORE_INDEXING_ANALYTICS", "false")
	t.Setenv("CORE_GITHUB_TOKENS", "a,b")
	t.Setenv("CORE_GITHUB_SKIP_PULLS", "true")
	t.Setenv("CORE_GITHUB_MAX_PAGES", "10")
	t.Setenv("CORE_INDEXING_ADMIN_TOKENS", "one, two")

	o := FromConfig(config.New())
	if o.BatchDays != 7 || o.MinInterval != 15*time.Minute || o.Timeouts.DB != 2*time.Second || o.Analytics {
		t.Fatalf("got %+v", o)
	}
	if o.GitHub.TokensCSV != "a,b" || !o.Fetcher.SkipPullRequests || o.Fetcher.MaxPages != 10 || len(o.AdminTokens) != 2 {
		t.Fatalf("github %+v fetcher %+v", o.GitHub, o.Fetcher)
	}
	sc := o.ServiceConfig()
	if sc.BatchDays != 7 || sc.MinInterval != 15*time.Minute || sc.Timeouts.DB != 2*time.Second {
		t.Fatalf("service config %+v", sc)
	}
}
