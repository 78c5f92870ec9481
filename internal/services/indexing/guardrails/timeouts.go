// Package guardrails holds cross cutting safety helpers for indexing
package guardrails

import (
	"context"
	"time"
)

// Timeouts is an optional budget bundle for a single indexing batch
// zero values mean no extra timeout at that level
type Timeouts struct {
	// Batch is the overall budget for one window
	Batch time.Duration

	// Fetch caps the github paging step
	Fetch time.Duration

	// Classify caps the batch classification step
	Classify time.Duration

	// DB caps each progress or commit write
	DB time.Duration
}

// ForBatch returns a context limited by the batch budget without extending any parent deadline
func ForBatch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Batch)
}

// ForFetch returns a sub context for the fetch phase
func ForFetch(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Fetch)
}

// ForClassify returns a sub context for the classify phase
func ForClassify(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.Classify)
}

// ForDB returns a sub context for one db write
func ForDB(parent context.Context, t Timeouts) (context.Context, context.CancelFunc) {
	return withChildTimeout(parent, t.DB)
}

// Detached keeps values of parent but drops its cancellation, bounded by d
// used to record a failure after the batch context was cancelled
func Detached(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return withChildTimeout(context.WithoutCancel(parent), d)
}

// Remaining returns the time until the deadline on ctx or zero when none is set or already expired
func Remaining(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		d := time.Until(dl)
		if d > 0 {
			return d
		}
	}
	return 0
}

// withChildTimeout chooses the tighter of d and any parent remainder, never extending the parent
func withChildTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	if rem := Remaining(parent); rem > 0 && rem < d {
		return context.WithTimeout(parent, rem)
	}
	return context.WithTimeout(parent, d)
}
