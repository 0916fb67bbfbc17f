// Package scheduler runs periodic maintenance jobs such as report retention.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/roster-insights/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job is a unit of periodic work.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job. The context is cancelled when the scheduler stops.
	Run(ctx context.Context) error
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Success     bool
	Error       error
}

// Duration returns how long the run took.
func (r JobResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrInvalidInterval         = errors.New("interval must be positive")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrJobRunning              = errors.New("job is already running")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

type scheduledJob struct {
	job       Job
	interval  time.Duration
	busy      bool
	lastRun   time.Time
	runCount  int64
	failCount int64
	last      *JobResult
}

// Scheduler runs each registered job on its own fixed interval. A job never
// overlaps with itself; a tick that lands while it runs is skipped.
type Scheduler struct {
	mu      sync.Mutex
	log     *logger.Logger
	jobs    map[string]*scheduledJob
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// RunOnStart runs every job once immediately after Start.
	RunOnStart bool
}

// New creates a scheduler.
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		log:  log.With(logger.Component("scheduler")),
		jobs: make(map[string]*scheduledJob),
	}
}

// Register adds job with the given interval. It must be called before Start.
func (s *Scheduler) Register(job Job, interval time.Duration) error {
	if job == nil {
		return ErrNilJob
	}
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}
	s.jobs[name] = &scheduledJob{job: job, interval: interval}

	s.log.Info("job registered", logger.String("job", name), logger.Duration("interval", interval))
	return nil
}

// Start launches one loop per job.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for _, sj := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, sj)
	}

	s.log.Info("scheduler started", logger.Int("jobs_count", len(s.jobs)))
	return nil
}

// Stop cancels the loops and waits for running jobs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()

	if s.RunOnStart {
		_, _ = s.execute(ctx, sj)
	}

	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.execute(ctx, sj)
		}
	}
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*JobResult, error) {
	s.mu.Lock()
	sj, exists := s.jobs[name]
	s.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, sj)
}

func (s *Scheduler) execute(ctx context.Context, sj *scheduledJob) (*JobResult, error) {
	name := sj.job.Name()

	s.mu.Lock()
	if sj.busy {
		s.mu.Unlock()
		s.log.Debug("job still running, tick skipped", logger.String("job", name))
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	sj.busy = true
	s.mu.Unlock()

	result := &JobResult{JobName: name, StartedAt: time.Now()}
	err := sj.job.Run(ctx)
	result.CompletedAt = time.Now()
	result.Success = err == nil
	result.Error = err

	s.mu.Lock()
	sj.busy = false
	sj.lastRun = result.StartedAt
	sj.runCount++
	if err != nil {
		sj.failCount++
	}
	sj.last = result
	s.mu.Unlock()

	if err != nil {
		s.log.Error("job failed", logger.String("job", name), logger.Latency(result.Duration()), logger.Err(err))
	} else {
		s.log.Info("job completed", logger.String("job", name), logger.Latency(result.Duration()))
	}
	return result, err
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// JobInfo describes a registered job.
type JobInfo struct {
	Name       string
	Interval   time.Duration
	LastRun    time.Time
	RunCount   int64
	FailCount  int64
	LastResult *JobResult
}

// ListJobs returns the registered jobs sorted by name.
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, sj := range s.jobs {
		infos = append(infos, JobInfo{
			Name:       name,
			Interval:   sj.interval,
			LastRun:    sj.lastRun,
			RunCount:   sj.runCount,
			FailCount:  sj.failCount,
			LastResult: sj.last,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
