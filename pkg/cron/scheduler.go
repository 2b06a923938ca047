// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the periodic work the scheduler drives.
type Job interface {
	SyncPending(ctx context.Context) error
}

// JobFunc adapts a plain function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) SyncPending(ctx context.Context) error { return f(ctx) }

// Scheduler runs the sync job on a cron schedule. It is constructed once at
// startup and passed by reference to anything that needs to control or query
// it; there is no package-level state.
type Scheduler struct {
	cron       *cron.Cron
	schedule   string
	job        Job
	jobTimeout time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler for a standard 5-field cron expression.
func NewScheduler(schedule string, job Job, jobTimeout time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		schedule:   schedule,
		job:        job,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Start registers the sync job and begins the schedule. Starting an already
// running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runJob); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop halts the schedule and returns a context that is done once any
// in-flight job has finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// IsRunning reports whether the schedule is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers one sync immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	go s.runJob()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	s.logger.Info("starting scheduled sync")
	if err := s.job.SyncPending(ctx); err != nil {
		s.logger.Error("scheduled sync failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled sync completed")
}
