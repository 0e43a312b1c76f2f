package ctxutil

import (
	"context"
	"time"
)

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithTimeout defaults a nil ctx and bounds it by d. Callers that shell out
// to external tools use it so a forgotten deadline cannot hang ingestion.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(Default(ctx), d)
}

// Detached returns a context bounded by d that ignores inbound cancellation.
// Cleanup paths use it: rollback and status writes must still run after the
// triggering context has died.
func Detached(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
