package worker

import (
	"context"
	"pharmaSupply/pkg/logger"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of periodic maintenance.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs each job on its own ticker until the context is cancelled.
type Scheduler struct {
	jobs []Job
}

func NewScheduler(jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs}
}

// Start blocks until ctx is done. Job errors are logged and never stop the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			logger.Warn("Skipping job with no interval", "job", j.Name)
			continue
		}
		g.Go(func() error {
			loop(ctx, j)
			return nil
		})
	}
	return g.Wait()
}

func loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, j)
		}
	}
}

func runOnce(ctx context.Context, j Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", j.Name, "panic", r)
		}
	}()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		logger.Error("Job failed", "job", j.Name, "error", err)
		return
	}
	logger.Debug("Job finished", "job", j.Name, "duration", time.Since(start))
}
