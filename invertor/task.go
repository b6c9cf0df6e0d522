package invertor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/pofr/core"
)

// Task is the handle of an operation running in the background.
// Its result is available once Done is closed.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	start  time.Time
	end    atomic.Int64 // unix nanoseconds, 0 while running
	val    T
	err    error
}

// startTask runs fn on its own goroutine under a cancellable child of ctx.
func startTask[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	tctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel, start: time.Now()}
	go func() {
		defer cancel()
		t.val, t.err = fn(tctx)
		t.end.Store(time.Now().UnixNano())
		close(t.done)
	}()

	return t
}

// Done is closed when the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Cancel asks the task to stop. A cancelled task finishes with
// context.Canceled unless it had already completed.
func (t *Task[T]) Cancel() { t.cancel() }

// Wait blocks until the task finishes or ctx is done, whichever comes first.
// Giving up on ctx does not cancel the task.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Elapsed returns the running time so far, or the total once finished.
func (t *Task[T]) Elapsed() time.Duration {
	if end := t.end.Load(); end != 0 {
		return time.Duration(end - t.start.UnixNano())
	}

	return time.Since(t.start)
}

// SolveAsync runs Solve in the background.
func (v *Invertor) SolveAsync(ctx context.Context) *Task[*core.Solution] {
	return startTask(ctx, v.Solve)
}

// EstimateAlphaAsync runs EstimateAlpha in the background.
func (v *Invertor) EstimateAlphaAsync(ctx context.Context) *Task[float64] {
	return startTask(ctx, v.EstimateAlpha)
}

// EstimateNTermsAsync runs EstimateNTerms in the background.
func (v *Invertor) EstimateNTermsAsync(ctx context.Context) *Task[int] {
	return startTask(ctx, v.EstimateNTerms)
}
