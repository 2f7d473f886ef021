// Package jobs runs periodic maintenance: purging expired invitations and
// rolling subscription billing dates forward.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/splithub/internal/metrics"
	"github.com/mmynk/splithub/internal/models"
)

// Store is the storage the jobs need.
type Store interface {
	PurgeExpiredInvitations(ctx context.Context, before int64) (int, error)
	ListDueSubscriptions(ctx context.Context, before int64) ([]*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
}

// Runner owns the job implementations.
type Runner struct {
	store Store
	now   func() time.Time
}

// NewRunner returns a Runner over store.
func NewRunner(store Store) *Runner {
	return &Runner{store: store, now: time.Now}
}

// PurgeInvitations removes invitations that have already expired.
func (r *Runner) PurgeInvitations(ctx context.Context) (int, error) {
	n, err := r.store.PurgeExpiredInvitations(ctx, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge invitations: %w", err)
	}
	return n, nil
}

// RollSubscriptions advances every due subscription past now, stepping whole
// cycles from its current billing date, and returns how many changed.
func (r *Runner) RollSubscriptions(ctx context.Context) (int, error) {
	now := r.now()
	due, err := r.store.ListDueSubscriptions(ctx, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("list due subscriptions: %w", err)
	}

	rolled := 0
	for _, sub := range due {
		anchor := time.Unix(sub.NextBillingDate, 0).UTC()
		next := anchor
		for n := 1; !next.After(now); n++ {
			next = sub.Cycle.Step(anchor, n)
		}
		sub.NextBillingDate = next.Unix()
		if err := r.store.UpdateSubscription(ctx, sub); err != nil {
			return rolled, fmt.Errorf("update subscription %s: %w", sub.ID, err)
		}
		rolled++
	}
	return rolled, nil
}

// Scheduler wraps a cron instance with the maintenance jobs registered.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

// NewScheduler registers the purge and subscription jobs with the given
// cron specs (standard five-field or descriptors like "@every 1h").
func NewScheduler(ctx context.Context, runner *Runner, purgeSpec, subscriptionSpec string) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	s := &Scheduler{cron: c, runner: runner}

	if _, err := c.AddFunc(purgeSpec, s.wrap(ctx, "purge_invitations", runner.PurgeInvitations)); err != nil {
		return nil, fmt.Errorf("schedule invitation purge %q: %w", purgeSpec, err)
	}
	if _, err := c.AddFunc(subscriptionSpec, s.wrap(ctx, "roll_subscriptions", runner.RollSubscriptions)); err != nil {
		return nil, fmt.Errorf("schedule subscription roll %q: %w", subscriptionSpec, err)
	}
	return s, nil
}

func (s *Scheduler) wrap(ctx context.Context, name string, job func(context.Context) (int, error)) func() {
	return func() {
		start := time.Now()
		n, err := job(ctx)
		metrics.RecordJobRun(name, err == nil)
		if err != nil {
			slog.Error("Job failed", "job", name, "error", err)
			return
		}
		slog.Info("Job finished", "job", name, "affected", n, "duration", time.Since(start))
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("Scheduler stopped")
	return nil
}
