package core

// scheduler.go runs background maintenance jobs.
//
// Hosts use it to expire idle import dialogs and to drop stale rate-limit
// buckets. A job runs immediately on start, then every Interval, until the
// context is cancelled. Jobs log their own failures; a failing run does not
// stop the scheduler.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultJobInterval is used when a job has no positive Interval.
const DefaultJobInterval = time.Minute

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	// Run performs one cycle and returns how many items it processed.
	Run func(ctx context.Context, now time.Time) int
}

// StartScheduler runs job until ctx is cancelled. It blocks; start it in its
// own goroutine.
func StartScheduler(ctx context.Context, job Job) {
	interval := job.Interval
	if interval <= 0 {
		interval = DefaultJobInterval
	}

	slog.Info("scheduler started", "job", job.Name, "interval", interval)

	// Run immediately on startup
	runJob(ctx, job, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped", "job", job.Name)
			return
		case now := <-ticker.C:
			runJob(ctx, job, now)
		}
	}
}

// runJob performs one cycle.
func runJob(ctx context.Context, job Job, now time.Time) {
	start := time.Now()
	n := job.Run(ctx, now)
	if n > 0 {
		slog.Info("scheduled job completed",
			"job", job.Name,
			"processed", n,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	slog.Debug("scheduled job completed", "job", job.Name)
}
