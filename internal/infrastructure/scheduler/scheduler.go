package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusIdle    JobStatus = "IDLE"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a named periodic task
type Job struct {
	Name string
	// Spec is a standard 5-field cron expression or a descriptor like "@every 10m"
	Spec string
	Run  func(ctx context.Context) error
}

// JobState is the bookkeeping kept for each registered job
type JobState struct {
	Name        string     `json:"name"`
	Spec        string     `json:"spec"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	Runs        int        `json:"runs"`
	Failures    int        `json:"failures"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
}

func (s *JobState) start(now time.Time) {
	s.Status = JobStatusRunning
	s.StartedAt = &now
	s.Error = ""
}

func (s *JobState) finish(now time.Time, err error) {
	s.Runs++
	s.CompletedAt = &now
	if err != nil {
		s.Status = JobStatusFailed
		s.Error = err.Error()
		s.Failures++
		return
	}
	s.Status = JobStatusSuccess
}

// Config holds scheduler configuration
type Config struct {
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 5 * time.Minute,
		Location:   time.UTC,
	}
}

type entry struct {
	job   Job
	id    cron.EntryID
	state JobState
}

// Scheduler runs maintenance jobs on cron schedules. A job that is still
// running when its next tick fires is skipped for that tick.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	entries   map[string]*entry
	baseCtx   context.Context
	cancel    context.CancelFunc
	isRunning bool
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	cronLogger := zapCronLogger{logger: logger.Named("cron")}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger,
		entries: make(map[string]*entry),
		baseCtx: context.Background(),
		now:     time.Now,
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Spec == "" || job.Run == nil {
		return ErrInvalidConfig
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	e := &entry{job: job, state: JobState{Name: job.Name, Spec: job.Spec, Status: JobStatusIdle}}
	id, err := s.cron.AddFunc(job.Spec, func() { s.execute(e) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Spec, job.Name, err)
	}
	e.id = id
	s.entries[job.Name] = e
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop stops scheduling and waits for running jobs, up to ctx's deadline
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.cancel()
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow executes a job immediately and waits for it
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(e)
}

// Jobs returns the state of every registered job, sorted by name
func (s *Scheduler) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobState, 0, len(s.entries))
	for _, e := range s.entries {
		state := e.state
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			state.NextRunAt = &next
		}
		out = append(out, state)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) execute(e *entry) error {
	s.mu.Lock()
	e.state.start(s.now())
	base := s.baseCtx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, s.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := e.job.Run(ctx)

	s.mu.Lock()
	e.state.finish(s.now(), err)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", e.job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return err
	}
	s.logger.Info("Job completed",
		zap.String("job", e.job.Name),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// zapCronLogger adapts zap to cron.Logger
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
