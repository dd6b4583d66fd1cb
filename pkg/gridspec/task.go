package gridspec

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/bitechdev/GridSpec/pkg/logger"
)

// dispatcher runs at most one query task at a time. Dispatching a new
// task supersedes the previous one: its context is cancelled as a hint,
// and even if it runs to completion its result is discarded at the
// apply boundary. Last writer wins.
type dispatcher struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Dispatch starts run in its own goroutine and calls apply with its
// result only if no newer dispatch happened in the meantime. The
// returned generation identifies this task; superseded tasks never
// reach apply.
func (d *dispatcher) Dispatch(parent context.Context, run func(ctx context.Context) *QueryResult, apply func(*QueryResult)) uint64 {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	if d.cancel != nil {
		d.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		defer cancel()

		result := d.runProtected(ctx, run)

		// Check and apply under one lock. A non-atomic check would let a
		// stale task pass, lose the race to a newer task's apply, and
		// then overwrite the newer result anyway.
		d.mu.Lock()
		defer d.mu.Unlock()
		if gen != d.gen {
			logger.Debug("Discarding result of superseded query task %d", gen)
			return
		}
		apply(result)
	}()

	return gen
}

func (d *dispatcher) runProtected(ctx context.Context, run func(ctx context.Context) *QueryResult) (result *QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Query task panicked: %v\n%s", r, debug.Stack())
			result = &QueryResult{Rows: []interface{}{}, Err: fmt.Errorf("query task panic: %v", r)}
		}
	}()
	return run(ctx)
}

// Cancel aborts any in-flight task without starting a new one. Its
// result, if it still completes, is discarded.
func (d *dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
