package cron

import (
	"context"
	"time"

	"github.com/hray3182/LifeLedger/internal/common"
)

// Runner is what the Scheduler triggers on every tick.
type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// Job is housekeeping run after the processor on every tick.
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

type Scheduler struct {
	runner        Runner
	jobs          []namedJob
	checkInterval time.Duration
	initialDelay  time.Duration
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:        runner,
		checkInterval: interval,
		initialDelay:  2 * time.Second,
	}
}

// AddJob registers a job. Call before Start.
func (s *Scheduler) AddJob(name string, job Job) {
	s.jobs = append(s.jobs, namedJob{name: name, run: job})
}

// Start runs the processor once after a short delay and then on every
// tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	common.LogInfo(ctx, "scheduler started", common.Fields{"interval": s.checkInterval.String()})
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	// Give migrations a moment before the first run.
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.initialDelay):
	}

	s.check(ctx)

	for {
		select {
		case <-ctx.Done():
			common.LogInfo(ctx, "scheduler stopped", nil)
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	// Errors are logged by the runner.
	_, _ = s.runner.Run(ctx)

	for _, job := range s.jobs {
		if err := job.run(ctx); err != nil {
			common.LogError(ctx, err, "scheduled job failed", common.Fields{"job": job.name})
		}
	}
}
