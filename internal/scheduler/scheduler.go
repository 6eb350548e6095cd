// Package scheduler runs the orchestrator's housekeeping on cron schedules:
// draining the task queue, dropping old tasks and refreshing metrics.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled piece of housekeeping. Jobs with an empty schedule
// or Enabled false are skipped.
type Job struct {
	Name     string
	Schedule string
	Enabled  bool
	Run      func(ctx context.Context)
}

// Scheduler evaluates cron expressions for a fixed set of jobs.
type Scheduler struct {
	mu   sync.Mutex
	jobs []Job
	cron *cron.Cron
	ctx  context.Context
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether schedule parses.
func Validate(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

func New(jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs: jobs,
		cron: cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the enabled jobs and starts the cron ticker. Jobs run
// with ctx. An invalid schedule is logged and its job skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	for _, job := range s.jobs {
		if job.Schedule == "" || !job.Enabled || job.Run == nil {
			continue
		}

		run := job.Run
		name := job.Name
		_, err := s.cron.AddFunc(job.Schedule, func() {
			slog.Debug("cron firing job", "name", name)
			run(ctx)
		})
		if err != nil {
			slog.Error("invalid cron schedule", "name", name, "schedule", job.Schedule, "error", err)
			continue
		}
		slog.Info("scheduled job", "name", name, "schedule", job.Schedule)
	}

	s.cron.Start()
	return nil
}

// Entries counts the registered cron entries.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cron.Entries())
}

// Reload stops the existing cron and starts a new one with jobs.
func (s *Scheduler) Reload(jobs ...Job) error {
	s.mu.Lock()
	s.cron.Stop()
	s.cron = cron.New(cron.WithParser(cronParser))
	s.jobs = jobs
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.Start(ctx)
}

// Stop stops the cron ticker. A job already running is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cron.Stop()
}

// Drainer processes queued tasks.
type Drainer interface {
	Drain(ctx context.Context, limit int) int
}

// Cleaner drops finished tasks.
type Cleaner interface {
	Cleanup(maxAge time.Duration) int
}

// Refresher reloads the dashboard metrics.
type Refresher interface {
	RefreshMetrics(ctx context.Context) error
}

// DrainJob processes up to limit pending tasks per run (no limit when <= 0).
func DrainJob(schedule string, limit int, d Drainer) Job {
	return Job{
		Name:     "drain",
		Schedule: schedule,
		Enabled:  true,
		Run: func(ctx context.Context) {
			if n := d.Drain(ctx, limit); n > 0 {
				slog.Info("drained tasks", "processed", n)
			}
		},
	}
}

// CleanupJob drops finished tasks older than maxAge.
func CleanupJob(schedule string, maxAge time.Duration, c Cleaner) Job {
	return Job{
		Name:     "cleanup",
		Schedule: schedule,
		Enabled:  true,
		Run: func(ctx context.Context) {
			c.Cleanup(maxAge)
		},
	}
}

// RefreshJob refetches metrics; failures are logged by the refresher.
func RefreshJob(schedule string, r Refresher) Job {
	return Job{
		Name:     "metrics",
		Schedule: schedule,
		Enabled:  true,
		Run: func(ctx context.Context) {
			_ = r.RefreshMetrics(ctx)
		},
	}
}
