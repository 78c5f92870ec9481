package repokit

import (
	"context"
	"fmt"
	"time"
)

// Guarder is anything that can verify its backends, e.g. *store.Store
type Guarder interface {
	Guard(context.Context) error
}

// DefaultGuardTimeout bounds MustGuard when ctx has no deadline
const DefaultGuardTimeout = 5 * time.Second

// MustGuard panics when the configured backends do not answer
func MustGuard(ctx context.Context, g Guarder) {
	if g == nil {
		panic("repokit: nil guarder")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultGuardTimeout)
		defer cancel()
	}
	if err := g.Guard(ctx); err != nil {
		panic(fmt.Errorf("backend guard failed: %w", err))
	}
}
