package store

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single store call when the caller sets none.
const DefaultTimeout = 5 * time.Second

// withTimeout bounds one store round trip so a hung backend cannot hold a request forever.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
