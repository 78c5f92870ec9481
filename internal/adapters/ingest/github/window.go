package github

import (
	"time"

	perr "gitpulse/internal/platform/errors"
)

const day = 24 * time.Hour

// Window is a [Since, Until) range over commit timestamps
type Window struct {
	Since time.Time
	Until time.Time
}

// Valid reports whether Since is strictly before Until
func (w Window) Valid() bool { return w.Since.Before(w.Until) }

// Validate returns an invalid argument error when the window is empty or inverted
func (w Window) Validate() error {
	if !w.Valid() {
		return perr.InvalidArgf("window since %s must be before until %s",
			w.Since.UTC().Format(timeLayout), w.Until.UTC().Format(timeLayout))
	}
	return nil
}

// Strategy rewrites a conflicting window into a new candidate
type Strategy struct {
	Name  string
	Apply func(w Window, now time.Time) Window
}

// ConflictStrategies is the fixed fallback chain tried on a range conflict
var ConflictStrategies = []Strategy{
	{Name: "shift_since_30d", Apply: func(w Window, _ time.Time) Window {
		return Window{Since: w.Since.Add(30 * day), Until: w.Until}
	}},
	{Name: "shrink_1d", Apply: func(w Window, _ time.Time) Window {
		return Window{Since: w.Since.Add(day), Until: w.Until.Add(-day)}
	}},
	{Name: "shrink_7d", Apply: func(w Window, _ time.Time) Window {
		return Window{Since: w.Since.Add(7 * day), Until: w.Until.Add(-7 * day)}
	}},
	{Name: "rolling_today", Apply: func(_ Window, now time.Time) Window {
		return Window{Since: now.Add(-day), Until: now}
	}},
}

// Candidates applies every strategy to w in order and keeps the valid results
func Candidates(w Window, now time.Time, chain []Strategy) []Candidate {
	out := make([]Candidate, 0, len(chain))
	for _, s := range chain {
		nw := s.Apply(w, now)
		if !nw.Valid() {
			continue
		}
		out = append(out, Candidate{Strategy: s.Name, Window: nw})
	}
	return out
}

// Candidate is a valid window produced by a named strategy
type Candidate struct {
	Strategy string
	Window   Window
}
