// Package logger holds the process wide zerolog logger and the request
// scoped children built from it
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gitpulse/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type handed around the codebase
type Logger = zerolog.Logger

// Options shape the root logger
type Options struct {
	Level        string
	Format       string // console or json
	Service      string
	Component    string
	Writer       io.Writer
	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_COMPONENT, LOG_CALLER
// and LOG_SAMPLE_EVERY through the raw view so config can log without a cycle
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       rc.Get("LEVEL", "debug"),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", "gitpulse"),
		Component:   rc.Get("COMPONENT", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Get returns the root logger, building it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger, only the first call has an effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		log := zerolog.New(output(opt)).Level(parseLevel(opt.Level)).With().Timestamp().Fields(fields(opt)).Logger()
		if opt.WithCaller {
			log = log.With().Caller().Logger()
		}
		if opt.SampleEvery > 1 {
			log = log.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&log)
	})
}

func output(opt Options) io.Writer {
	w := opt.Writer
	if w == nil {
		w = os.Stdout
	}
	if opt.Format == "console" {
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return w
}

// fields are the static fields every line carries, blank ones are dropped
func fields(opt Options) map[string]any {
	out := make(map[string]any, len(opt.StaticFields)+3)
	for k, v := range opt.StaticFields {
		out[k] = v
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		out["go_version"] = bi.GoVersion
	}
	for k, v := range map[string]string{"service": opt.Service, "component": opt.Component} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// parseLevel falls back to debug for empty or unknown names
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil && s != "" {
		return lvl
	}
	return zerolog.DebugLevel
}

// request holds the per request fields C attaches
type request struct{ id, actor string }

type requestKey struct{}

// WithRequest records the request id and acting user for C
// empty values keep what ctx already carries
func WithRequest(ctx context.Context, reqID, actor string) context.Context {
	rq, _ := ctx.Value(requestKey{}).(request)
	if reqID != "" {
		rq.id = reqID
	}
	if actor != "" {
		rq.actor = actor
	}
	return context.WithValue(ctx, requestKey{}, rq)
}

// C returns the root logger with request_id and actor from ctx attached
func C(ctx context.Context) *Logger {
	if ctx == nil {
		return Get()
	}
	rq, ok := ctx.Value(requestKey{}).(request)
	if !ok {
		return Get()
	}
	b := Get().With()
	if rq.id != "" {
		b = b.Str("request_id", rq.id)
	}
	if rq.actor != "" {
		b = b.Str("actor", rq.actor)
	}
	l := b.Logger()
	return &l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
