// Package goroutine bounds and supervises background work so fire-and-forget
// tasks cannot leak or crash the process.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/mobanklabs/otpgate/internal/pkg/stacktrace"
)

// DefaultMaxInFlight is used when NewRunner receives a non-positive limit.
const DefaultMaxInFlight = 64

// Runner executes functions in goroutines under a fixed concurrency cap,
// recovering panics and collecting returned errors for Wait.
type Runner struct {
	wg     sync.WaitGroup
	sema   chan struct{}
	errMu  sync.Mutex
	errs   []error
	doneMu sync.RWMutex
	done   bool
}

// NewRunner creates a Runner with the provided maximum concurrency.
func NewRunner(maxInFlight int) *Runner {
	if maxInFlight < 1 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Runner{sema: make(chan struct{}, maxInFlight)}
}

// Go schedules f in a goroutine if a slot is free. When the runner is at
// capacity or already waited on, f is dropped with a warning rather than
// blocking the caller.
func (r *Runner) Go(ctx context.Context, f func(ctx context.Context) error) {
	if r == nil {
		return
	}

	r.doneMu.RLock()
	closed := r.done
	r.doneMu.RUnlock()
	if closed {
		slog.WarnContext(ctx, "runner already waited on, dropping task")
		return
	}

	select {
	case r.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "runner at capacity, dropping task")
		return
	}

	r.wg.Add(1)
	go func() {
		defer func() {
			<-r.sema
			r.wg.Done()

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
					slog.ErrorContext(ctx, "panic in background task", "panic", rvr, "stack", paths)
				} else {
					slog.ErrorContext(ctx, "panic in background task", "panic", rvr, "stack", string(stack))
				}
			}
		}()

		if ctx.Err() != nil {
			slog.WarnContext(ctx, "background task canceled", "because", ctx.Err())
			return
		}

		if err := f(ctx); err != nil {
			r.errMu.Lock()
			r.errs = append(r.errs, err)
			r.errMu.Unlock()
		}
	}()
}

// Wait blocks until all scheduled tasks finish and returns their joined
// errors. After Wait the runner accepts no new tasks.
func (r *Runner) Wait() error {
	if r == nil {
		return nil
	}

	r.doneMu.Lock()
	r.done = true
	r.doneMu.Unlock()

	r.wg.Wait()

	r.errMu.Lock()
	defer r.errMu.Unlock()
	return errors.Join(r.errs...)
}
