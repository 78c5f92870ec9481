package github

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

// StatusError is a non 200 answer from the API
type StatusError struct {
	Status int
	Body   string
	err    error
}

func (e *StatusError) Error() string { return e.err.Error() }
func (e *StatusError) Unwrap() error { return e.err }

// StatusOf is the API status carried by err, zero for transport and other errors
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsRangeConflict reports the 409 a commit list answers for a window it cannot serve
func IsRangeConflict(err error) bool { return StatusOf(err) == http.StatusConflict }

// rate is what the rate limit headers of a response say
type rate struct {
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

func readRate(h http.Header) rate {
	var r rate
	r.remaining, _ = strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if sec, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil && sec > 0 {
		r.reset = time.Unix(sec, 0).UTC()
	}
	if sec, err := strconv.Atoi(h.Get("Retry-After")); err == nil && sec > 0 {
		r.retryAfter = time.Duration(sec) * time.Second
	}
	return r
}

// wait is the pause the headers ask for, Retry-After first then an exhausted quota's reset
func (r rate) wait(now time.Time) time.Duration {
	switch {
	case r.retryAfter > 0:
		return r.retryAfter
	case r.remaining <= 0 && r.reset.After(now):
		return r.reset.Sub(now)
	}
	return 0
}
