package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"select 1":                      "select 1",
		"  select   1  ":                "select 1",
		"SELECT\t*\nFROM\r\tcommits  a": "SELECT * FROM commits a",
		"":                              "",
	}
	for in, want := range cases {
		if got := compact(in); got != want {
			t.Fatalf("compact(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxArgLen+10)
	got := clip([]any{1, "short", long})
	if got[0] != 1 || got[1] != "short" {
		t.Fatalf("short args changed: %v", got)
	}
	if s := got[2].(string); len(s) != maxArgLen+3 || !strings.HasSuffix(s, "...") {
		t.Fatalf("long arg not clipped: %d", len(s))
	}
	if clip(nil) != nil {
		t.Fatalf("nil args should stay nil")
	}
}

func TestTracer_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf))

	type line struct {
		Level     string  `json:"level"`
		ElapsedMS float64 `json:"elapsed_ms"`
		SQL       string  `json:"sql"`
		Error     string  `json:"error"`
		Component string  `json:"component"`
	}
	read := func() line {
		t.Helper()
		var l line
		if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &l); err != nil {
			t.Fatalf("decode %q: %v", buf.String(), err)
		}
		buf.Reset()
		return l
	}

	ev := QueryEvent{SQL: "SELECT *\n FROM progress", Args: []any{"acme/widgets"}, ElapsedUS: 1500}
	tr.OnQuery(context.Background(), ev)
	l := read()
	if l.Level != "info" || l.SQL != "SELECT * FROM progress" || l.Component != "pg" {
		t.Fatalf("info line = %+v", l)
	}
	if l.ElapsedMS != 1.5 {
		t.Fatalf("elapsed_ms = %v", l.ElapsedMS)
	}

	ev.Slow = true
	tr.OnQuery(context.Background(), ev)
	if l := read(); l.Level != "warn" {
		t.Fatalf("slow line level = %q", l.Level)
	}

	ev.Err = errors.New("boom")
	tr.OnQuery(context.Background(), ev)
	if l := read(); l.Level != "error" || l.Error != "boom" {
		t.Fatalf("failed line = %+v", l)
	}
}
