package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrDuplicateName rejects registration under a name that is still live.
// Overwriting silently would leak the old schedule; failing loudly was the
// deliberate choice here.
var ErrDuplicateName = errors.New("job name already registered")

// Runner is the externally supplied run-repeating primitive the registry
// wraps. The registry never invokes callbacks itself.
type Runner interface {
	RunRepeating(cb Callback, interval, first time.Duration, data any, name string) (*Job, error)
}

// RegistryConfig bounds the registry.
type RegistryConfig struct {
	MaxJobs         int           `yaml:"max_jobs"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxAge          time.Duration `yaml:"max_age"`
}

func (c *RegistryConfig) applyDefaults() {
	if c.MaxJobs == 0 {
		c.MaxJobs = 20
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = 10 * time.Minute
	}
	if c.MaxAge == 0 {
		c.MaxAge = time.Hour
	}
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	TotalJobs   int
	ActiveJobs  int
	LastCleanup time.Time
}

type entry struct {
	job     *Job
	created time.Time
}

// Registry tracks repeating jobs with a capacity bound and age-based
// eviction, so a process that registers jobs for months never grows its
// scheduler state without bound. All mutation is mutex-serialized.
type Registry struct {
	cfg RegistryConfig

	mu          sync.Mutex
	jobs        map[string]*entry
	lastCleanup time.Time
	now         func() time.Time
}

// NewRegistry builds a registry, filling unset bounds with defaults.
func NewRegistry(cfg RegistryConfig) *Registry {
	cfg.applyDefaults()
	return &Registry{
		cfg:         cfg,
		jobs:        make(map[string]*entry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Register wires a repeating job through the runner and tracks its handle.
// A maybe-cleanup pass runs first; at capacity a forced cleanup evicts
// anything older than MaxAge. Registration failures (duplicate name,
// runner rejection) propagate; jobs are never dropped silently.
func (r *Registry) Register(runner Runner, cb Callback, interval, first time.Duration, data any, name string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.maybeCleanup()

	if existing, ok := r.jobs[name]; ok {
		if !existing.job.Removed() {
			return nil, ErrDuplicateName
		}
		delete(r.jobs, name) // stale handle, sweep it now
	}

	if len(r.jobs) >= r.cfg.MaxJobs {
		log.Warn().Int("jobs", len(r.jobs)).Int("max", r.cfg.MaxJobs).Msg("registry at capacity, forcing cleanup")
		r.forceCleanup()
	}

	job, err := runner.RunRepeating(cb, interval, first, data, name)
	if err != nil {
		return nil, err
	}

	r.jobs[name] = &entry{job: job, created: r.now()}
	log.Info().Str("job", name).Int("tracked", len(r.jobs)).Msg("job registered")
	return job, nil
}

// maybeCleanup sweeps completed/cancelled jobs, at most once per
// CleanupInterval to bound overhead. Caller holds the lock.
func (r *Registry) maybeCleanup() {
	now := r.now()
	if now.Sub(r.lastCleanup) < r.cfg.CleanupInterval {
		return
	}
	r.lastCleanup = now

	swept := 0
	for name, e := range r.jobs {
		if e.job.Removed() {
			delete(r.jobs, name)
			swept++
		}
	}
	if swept > 0 {
		log.Info().Int("swept", swept).Msg("cleaned up completed jobs")
	}
}

// forceCleanup evicts jobs older than MaxAge regardless of state, so a
// full registry can always make room. Caller holds the lock.
func (r *Registry) forceCleanup() {
	now := r.now()
	for name, e := range r.jobs {
		age := now.Sub(e.created)
		if age <= r.cfg.MaxAge && !e.job.Removed() {
			continue
		}
		e.job.ScheduleRemoval()
		delete(r.jobs, name)
		log.Warn().Str("job", name).Dur("age", age).Msg("evicted job")
	}
}

// Remove cancels and forgets a job by name. Unknown names are a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.jobs[name]; ok {
		e.job.ScheduleRemoval()
		delete(r.jobs, name)
	}
}

// Stats reports tracked and still-active job counts. Active excludes jobs
// already cancelled but not yet swept.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, e := range r.jobs {
		if !e.job.Removed() {
			active++
		}
	}
	return Stats{TotalJobs: len(r.jobs), ActiveJobs: active, LastCleanup: r.lastCleanup}
}
