// Package compute provides the parallel execution backend shared by the
// similarity and clustering engines.
//
// A Context owns a process-long worker pool and dispatches data-parallel
// work over a linear index space: callers describe the total number of
// independent units (one per row, or one per pair), and Dispatch partitions
// that space into contiguous chunks executed concurrently. Units never
// communicate; each one reads from caller-owned input slices and writes to
// its own output slot, so no synchronization is needed beyond the final
// barrier.
//
// The pool is probed lazily, at most once per Context. A probe failure
// permanently selects the CPU path for that Context; a dispatch failure only
// degrades the single call that hit it. Engines implement the fallback:
//
//	if cc.Available() {
//	    if err := cc.Dispatch(ctx, total, fn); err == nil {
//	        return ...
//	    }
//	    // diagnostic log, then fall through to the CPU path
//	}
package compute

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	// ErrBackendUnavailable means the parallel backend is disabled or its
	// one-time probe failed. Engines recover from it silently.
	ErrBackendUnavailable = errors.New("compute: parallel backend unavailable")

	// ErrDispatchFailed means a dispatch started but did not complete. It
	// degrades the single call that observed it, not the backend.
	ErrDispatchFailed = errors.New("compute: dispatch failed")
)

// Config controls the parallel backend of a Context.
type Config struct {
	// Parallel toggles the parallel backend. When false the probe reports
	// ErrBackendUnavailable and every call runs on the CPU path.
	Parallel bool `yaml:"parallel"`

	// Workers is the worker pool size. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// MinParallel is the smallest unit count worth dispatching. Inputs
	// below it run on the CPU path, where pool overhead would dominate.
	MinParallel int `yaml:"min_parallel"`
}

// DefaultConfig returns the settings used when no configuration is supplied:
// parallel enabled, one worker per logical CPU, small inputs kept on CPU.
func DefaultConfig() Config {
	return Config{
		Parallel:    true,
		Workers:     0,
		MinParallel: 64,
	}
}

// Stats tracks backend usage counters. All fields are cumulative.
type Stats struct {
	DispatchesParallel int64
	OperationsCPU      int64
	FallbackCount      int64
}

// Context is the injectable backend selector. The zero value is not usable;
// construct with NewContext. A single Context is safe for concurrent use by
// any number of engine calls.
type Context struct {
	config Config
	logger *zap.Logger

	probeOnce sync.Once
	pool      *ants.Pool
	probeErr  error

	dispatchesParallel atomic.Int64
	operationsCPU      atomic.Int64
	fallbackCount      atomic.Int64
}

// Option configures a Context.
type Option func(*Context)

// WithLogger attaches a logger for backend diagnostics. Probe and dispatch
// failures are logged here and never surfaced through engine results.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewContext creates a backend context. The worker pool is not created until
// the first Available or Dispatch call.
func NewContext(config Config, opts ...Option) *Context {
	c := &Context{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// probe creates the worker pool exactly once. The outcome is terminal for
// the lifetime of the Context.
func (c *Context) probe() {
	c.probeOnce.Do(func() {
		if !c.config.Parallel {
			c.probeErr = fmt.Errorf("%w: disabled by configuration", ErrBackendUnavailable)
			return
		}
		workers := c.config.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		pool, err := ants.NewPool(workers)
		if err != nil {
			c.probeErr = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			c.logger.Debug("parallel backend probe failed, cpu path selected",
				zap.Int("workers", workers), zap.Error(err))
			return
		}
		c.pool = pool
		c.logger.Debug("parallel backend available", zap.Int("workers", workers))
	})
}

// Available reports whether the parallel backend can accept dispatches,
// probing it on first use.
func (c *Context) Available() bool {
	c.probe()
	return c.probeErr == nil
}

// ShouldDispatch reports whether a workload of the given unit count belongs
// on the parallel backend.
func (c *Context) ShouldDispatch(total int) bool {
	return total >= c.config.MinParallel && c.Available()
}

// Workers returns the size of the probed pool, or 0 when unavailable.
func (c *Context) Workers() int {
	if !c.Available() {
		return 0
	}
	return c.pool.Cap()
}

// Dispatch runs fn over the linear index space [0, total), partitioned into
// contiguous [start, end) chunks across the worker pool. It blocks until
// every unit has completed; there is no partial readback. fn must confine
// its writes to output slots owned by the indices it was given.
//
// A panic inside any unit is recovered and reported as ErrDispatchFailed.
// Cancellation of ctx is honored between chunk submissions only; chunks
// already submitted run to completion before Dispatch returns.
func (c *Context) Dispatch(ctx context.Context, total int, fn func(start, end int)) error {
	c.probe()
	if c.probeErr != nil {
		return c.probeErr
	}
	if total <= 0 {
		return nil
	}

	chunk := total / c.pool.Cap()
	if chunk < 1 {
		chunk = 1
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		unitErr  error
		recordFn = func(err error) {
			errOnce.Do(func() { unitErr = err })
		}
	)

	submitErr := func() error {
		for start := 0; start < total; start += chunk {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, e := start, start+chunk
			if e > total {
				e = total
			}
			wg.Add(1)
			err := c.pool.Submit(func() {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						recordFn(fmt.Errorf("unit panic: %v", r))
					}
				}()
				fn(s, e)
			})
			if err != nil {
				wg.Done()
				return err
			}
		}
		return nil
	}()

	wg.Wait()

	if submitErr != nil {
		c.fallbackCount.Add(1)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, submitErr)
	}
	if unitErr != nil {
		c.fallbackCount.Add(1)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, unitErr)
	}

	c.dispatchesParallel.Add(1)
	return nil
}

// RecordCPU notes one engine call served by the CPU path.
func (c *Context) RecordCPU() {
	c.operationsCPU.Add(1)
}

// Stats returns a snapshot of the usage counters.
func (c *Context) Stats() Stats {
	return Stats{
		DispatchesParallel: c.dispatchesParallel.Load(),
		OperationsCPU:      c.operationsCPU.Load(),
		FallbackCount:      c.fallbackCount.Load(),
	}
}

// Close releases the worker pool. The Context is unusable afterwards; any
// later Dispatch returns ErrDispatchFailed via pool submission errors.
func (c *Context) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}
