package queue

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/JoelJohnsonThomas/nexus-pipeline/core"
)

const defaultPollInterval = 500 * time.Millisecond

// Handler processes a single job. The returned result reports whether the
// work succeeded; a handled failure is still a completed delivery, so the
// runner acknowledges the job either way. Handlers must be idempotent
// because expired leases redeliver jobs.
type Handler interface {
	Handle(ctx context.Context, job *core.Job) core.Result
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *core.Job) core.Result

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *core.Job) core.Result {
	return f(ctx, job)
}

// Runner polls the queue and dispatches jobs to registered handlers.
// One polling goroutine runs per registered stage; jobs execute on a
// shared worker pool.
type Runner struct {
	queue        *Queue
	handlers     map[core.Stage]Handler
	pool         *ants.Pool
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithPoolSize sets the worker pool size for job execution.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) RunnerOption {
	return func(r *Runner) error {
		if size < 1 {
			size = 1
		}
		if r.pool != nil {
			r.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		r.pool = pool
		return nil
	}
}

// WithPollInterval sets how long a stage goroutine sleeps when its queue
// is empty.
func WithPollInterval(interval time.Duration) RunnerOption {
	return func(r *Runner) error {
		if interval > 0 {
			r.pollInterval = interval
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "runner")
		return nil
	}
}

// NewRunner creates a runner for the given queue.
func NewRunner(queue *Queue, opts ...RunnerOption) (*Runner, error) {
	if queue == nil {
		return nil, ErrBackendRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		queue:        queue,
		handlers:     make(map[core.Stage]Handler),
		pool:         pool,
		pollInterval: defaultPollInterval,
		logger:       slog.Default().With("component", "runner"),
		stop:         make(chan struct{}),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.pool.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Register installs a handler for a stage. Must be called before Start.
func (r *Runner) Register(stage core.Stage, handler Handler) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	if !stage.Valid() {
		return ErrInvalidStage
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRunnerStarted
	}
	r.handlers[stage] = handler
	return nil
}

// Start launches one polling goroutine per registered stage.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRunnerStarted
	}
	r.started = true

	for stage := range r.handlers {
		r.wg.Add(1)
		go r.pollStage(ctx, stage)
	}
	return nil
}

// Stop halts polling, waits for in-flight jobs, and releases the pool.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()
	r.pool.Release()
}

// pollStage is the per-stage delivery loop.
func (r *Runner) pollStage(ctx context.Context, stage core.Stage) {
	defer r.wg.Done()

	logger := r.logger.With("stage", stage.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx, stage)
		if err != nil {
			logger.Error("dequeue failed", "err", err)
			r.sleep(ctx)
			continue
		}
		if job == nil {
			r.sleep(ctx)
			continue
		}

		r.wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer r.wg.Done()
			r.process(ctx, job)
		})
		if submitErr != nil {
			r.wg.Done()
			logger.Error("submit failed", "job_id", job.Id, "err", submitErr)
			r.sleep(ctx)
		}
	}
}

// process runs one job through its handler and settles the delivery.
func (r *Runner) process(ctx context.Context, job *core.Job) {
	logger := r.logger.With("job_id", job.Id, "stage", job.Stage.String(), "item_id", job.ItemId)

	handler, ok := r.handlers[job.Stage]
	if !ok {
		if err := r.queue.Fail(ctx, job, "no handler registered"); err != nil {
			logger.Error("failed to register job failure", "err", err)
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			reason := fmt.Sprintf("panic: %v", rec)
			logger.Error("handler panicked", "panic", rec)
			if err := r.queue.Fail(ctx, job, reason); err != nil {
				logger.Error("failed to register job failure", "err", err)
			}
		}
	}()

	hctx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	result := handler.Handle(hctx, job)
	if !result.OK {
		logger.Warn("job failed", "reason", result.Reason)
	}

	// Handled failures are settled deliveries: the handler has already
	// recorded the failure on the item's processing record.
	if err := r.queue.Ack(ctx, job); err != nil {
		if err == ErrJobNotLeased {
			logger.Warn("lease expired before ack, job may be redelivered")
			return
		}
		logger.Error("ack failed", "err", err)
	}
}

func (r *Runner) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-r.stop:
	case <-time.After(r.pollInterval):
	}
}
