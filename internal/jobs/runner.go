// Package jobs provides a repeating-job scheduler and a bounded registry
// that keeps long-running processes from accumulating dead schedules.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Callback runs on every tick of a repeating job. The context is cancelled
// when the job is removed or the scheduler shuts down.
type Callback func(ctx context.Context, data any)

// Job is the handle to one repeating schedule. Callbacks for a single job
// never overlap; ticks that fire while the callback still runs are dropped.
type Job struct {
	name string
	data any

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	removed bool
}

// Name returns the job's registration name.
func (j *Job) Name() string { return j.name }

// ScheduleRemoval stops the job's ticker. Idempotent; the callback's
// context is cancelled and no further ticks fire.
func (j *Job) ScheduleRemoval() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.removed {
		return
	}
	j.removed = true
	j.cancel()
}

// Removed reports whether the job has been cancelled or has stopped.
func (j *Job) Removed() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.removed
}

// Scheduler owns the goroutines behind repeating jobs.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewScheduler builds a scheduler whose jobs stop when Shutdown is called.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{ctx: ctx, cancel: cancel}
}

// RunRepeating starts a job that first fires after `first`, then every
// `interval`. data is handed to each callback invocation untouched.
func (s *Scheduler) RunRepeating(cb Callback, interval, first time.Duration, data any, name string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("scheduler is shut down")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("job %q: interval must be positive", name)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	job := &Job{name: name, data: data, cancel: cancel, done: make(chan struct{})}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(job.done)
		defer job.markRemoved()

		timer := time.NewTimer(first)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		cb(ctx, data)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cb(ctx, data)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Debug().Str("job", name).Dur("interval", interval).Dur("first", first).Msg("repeating job started")
	return job, nil
}

func (j *Job) markRemoved() {
	j.mu.Lock()
	j.removed = true
	j.mu.Unlock()
}

// Shutdown cancels every job and waits for running callbacks to return,
// or for ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
