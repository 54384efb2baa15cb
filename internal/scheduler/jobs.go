package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// DispatchJob marks scheduled campaigns whose send time has passed as sent.
// In a real delivery pipeline this is where sends would be handed to the
// messaging provider.
type DispatchJob struct {
	Store        *Store
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "* * * * *"
}

// Compile-time interface check.
var _ Job = (*DispatchJob)(nil)

// Name implements Job.
func (j *DispatchJob) Name() string { return "campaign_dispatch" }

// Schedule implements Job.
func (j *DispatchJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "* * * * *"
}

// Run dispatches due campaigns.
func (j *DispatchJob) Run(ctx context.Context) error {
	n, err := j.Store.MarkDueSent(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		j.Logger.Info("scheduler: dispatched campaigns", "count", n)
	}
	return nil
}

// Pruner drops expired entries and reports how many went away.
type Pruner interface {
	Prune() int
}

// RateLimitPruneJob periodically drops rate-limiter buckets whose window
// has expired. Without it the per-client map grows with every distinct
// address a long-running deployment ever sees.
type RateLimitPruneJob struct {
	Limiter Pruner
	Logger  *slog.Logger
}

var _ Job = (*RateLimitPruneJob)(nil)

// Name implements Job.
func (j *RateLimitPruneJob) Name() string { return "ratelimit_prune" }

// Schedule implements Job.
func (j *RateLimitPruneJob) Schedule() string { return "*/5 * * * *" }

// Run prunes idle rate-limiter buckets.
func (j *RateLimitPruneJob) Run(_ context.Context) error {
	if n := j.Limiter.Prune(); n > 0 {
		j.Logger.Debug("scheduler: pruned idle rate-limit buckets", "count", n)
	}
	return nil
}
