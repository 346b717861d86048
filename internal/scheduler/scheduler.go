// Package scheduler runs the periodic pipeline jobs under one supervised
// registry, so shutdown can cancel every job between its barrier points
// instead of abandoning fire-and-forget goroutines.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is one named periodic task. Run receives a context that is canceled
// on shutdown; a run that returns an error is logged and retried on the
// next tick.
type Job struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Timeout    time.Duration
	Run        func(ctx context.Context) error
}

type Registry struct {
	logger zerolog.Logger

	mu      sync.Mutex
	jobs    []Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Add registers a job. Must be called before Start.
func (r *Registry) Add(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

// Start launches one supervisor goroutine per job.
func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.supervise(ctx, job)
	}
	r.logger.Info().Int("jobs", len(r.jobs)).Msg("scheduler started")
}

// Stop cancels every job and waits for in-flight runs to return, bounded
// by the given context.
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) supervise(ctx context.Context, job Job) {
	defer r.wg.Done()

	logger := r.logger.With().Str("job", job.Name).Logger()

	if job.RunAtStart {
		r.runOnce(ctx, logger, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, logger, job)
		}
	}
}

func (r *Registry) runOnce(ctx context.Context, logger zerolog.Logger, job Job) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("job panicked")
		}
	}()

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job.Run(runCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("job run failed")
		return
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("job run complete")
}
