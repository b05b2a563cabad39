// Package async provides panic-safe helpers for fire-and-forget work.
package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/linkai/console/pkg/observability"
)

// Go executes fn in a goroutine with context cancellation, panic recovery,
// and timeout enforcement. Use this instead of a bare `go func()` for
// background work whose failure must not crash the process.
//
// Example:
//
//	async.Go(ctx, logger, 5*time.Second, "profile resolution", func(ctx context.Context) error {
//	    return ctrl.resolveProfile(ctx, session)
//	})
func Go(parentCtx context.Context, logger *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"task":  taskName,
					"panic": fmt.Sprintf("%v", r),
					"stack": string(debug.Stack()),
				}).Error("panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", taskName).Warn("background task failed")
		}
	}()
}
