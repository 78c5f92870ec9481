package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	// AppName is the postgres application_name and the clickhouse client role
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the startup ping loop, zero means 20
	ConnectRetries int
	// PingTimeout caps each startup ping, zero means 3s
	PingTimeout time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string

	// Tag is reported to clickhouse as the client version
	Tag         string
	DialTimeout time.Duration
}
