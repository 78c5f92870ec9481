package module

import (
	"time"

	"gitpulse/internal/adapters/llm/ollama"
	"gitpulse/internal/platform/config"
	"gitpulse/internal/services/classify/service"
)

// Options controls the cascade and its oracle
type Options struct {
	Workers int

	// OracleEnabled false keeps classification on the fast path
	OracleEnabled bool
	Oracle        ollama.Config
}

// FromConfig reads CORE_CLASSIFY_* and CORE_OLLAMA_* values
func FromConfig(cfg config.Conf) Options {
	cc := cfg.Prefix("CORE_CLASSIFY_")
	oc := cfg.Prefix("CORE_OLLAMA_")
	return Options{
		Workers:       cc.MayInt("WORKERS", 3),
		OracleEnabled: oc.MayBool("ENABLED", true),
		Oracle: ollama.Config{
			BaseURL:         oc.MayString("URL", "http://localhost:11434"),
			Model:           oc.MayString("MODEL", "gemma3:1b"),
			Timeout:         oc.MayDuration("TIMEOUT", 30*time.Second),
			Temperature:     oc.MayFloat64("TEMPERATURE", 0.3),
			MaxTokens:       oc.MayInt("MAX_TOKENS", 10),
			RPS:             oc.MayFloat64("RPS", 0),
			Burst:           oc.MayInt("BURST", 1),
			BreakerFailures: oc.MayInt("BREAKER_FAILURES", 5),
			BreakerOpenFor:  oc.MayDuration("BREAKER_OPEN_FOR", 30*time.Second),
		},
	}
}

func (o Options) serviceConfig() service.Config {
	return service.Config{Workers: o.Workers}
}
