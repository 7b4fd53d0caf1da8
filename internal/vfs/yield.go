package vfs

import (
	"context"
	"runtime"
)

// Yield is the per-operation suspension point. Every facade operation calls
// it once at entry: a cancelled context aborts the operation before any
// shared state is touched, and the explicit reschedule keeps interleaving
// behavior comparable between a backend that never waits on real I/O and
// one that does.
func Yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	runtime.Gosched()
	return nil
}
