/**
 * @description
 * Scheduled job implementations: the subscription sweep (expiration then
 * auto-renewal) and the due-reminder dispatch pass.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
	"github.com/samuelldmj/subscription-management-api/internal/schedule"
)

// SweepRepository defines database operations needed by the sweep.
type SweepRepository interface {
	FindSubscriptionsToExpire(ctx context.Context, graceCutoff time.Time) ([]domain.Subscription, error)
	ExpireSubscription(ctx context.Context, id uuid.UUID, renewalDate time.Time) error
	FindSubscriptionsToRenew(ctx context.Context, after, until time.Time) ([]domain.Subscription, error)
}

// Renewer performs a single auto-renewal, including reminder re-planning.
type Renewer interface {
	AutoRenew(ctx context.Context, sub *domain.Subscription) error
}

// DueReminderProcessor publishes reminders that have come due.
type DueReminderProcessor interface {
	ProcessDue(ctx context.Context) error
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo      SweepRepository
	renewer   Renewer
	reminders DueReminderProcessor
	clock     schedule.Clock
	logger    *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo SweepRepository, renewer Renewer, reminders DueReminderProcessor, clock schedule.Clock, logger *slog.Logger) *Jobs {
	return &Jobs{
		repo:      repo,
		renewer:   renewer,
		reminders: reminders,
		clock:     clock,
		logger:    logger,
	}
}

// ProcessSubscriptionTasks runs the periodic sweep: first expire every
// active subscription whose grace window has fully elapsed, then auto-renew
// the active, auto-renewing subscriptions whose renewal date falls inside
// the grace window. Expiration runs first so a subscription past the window
// cannot be renewed out of an expired state in the same run, and the two
// ranges share a boundary only on the expiration side: at exactly
// renewalDate + 7d == now the subscription expires.
func (j *Jobs) ProcessSubscriptionTasks() {
	ctx := context.Background()
	now := j.clock.Now()
	graceCutoff := now.AddDate(0, 0, -schedule.GracePeriodDays)

	j.logger.Info("starting subscription sweep")

	expired := 0
	toExpire, err := j.repo.FindSubscriptionsToExpire(ctx, graceCutoff)
	if err != nil {
		j.logger.Error("failed to find subscriptions to expire", "error", err)
	} else {
		for _, sub := range toExpire {
			if err := j.repo.ExpireSubscription(ctx, sub.ID, sub.RenewalDate); err != nil {
				if errors.Is(err, domain.ErrPersistenceConflict) {
					j.logger.Info("subscription changed since sweep read, skipping expiration", "subscription_id", sub.ID)
				} else {
					j.logger.Error("failed to expire subscription", "subscription_id", sub.ID, "error", err)
				}
				continue
			}
			expired++
			j.logger.Info("expired subscription", "subscription_id", sub.ID, "renewal_date", sub.RenewalDate)
		}
	}

	renewed := 0
	toRenew, err := j.repo.FindSubscriptionsToRenew(ctx, graceCutoff, now)
	if err != nil {
		j.logger.Error("failed to find subscriptions to renew", "error", err)
	} else {
		for _, sub := range toRenew {
			if err := j.renewer.AutoRenew(ctx, &sub); err != nil {
				if errors.Is(err, domain.ErrPersistenceConflict) {
					j.logger.Info("subscription renewed concurrently, skipping", "subscription_id", sub.ID)
				} else {
					j.logger.Error("failed to auto-renew subscription", "subscription_id", sub.ID, "error", err)
				}
				continue
			}
			renewed++
			j.logger.Info("auto-renewed subscription", "subscription_id", sub.ID)
		}
	}

	j.logger.Info("subscription sweep finished", "expired", expired, "renewed", renewed)
}

// ProcessDueReminders publishes every reminder whose scheduled instant has
// arrived.
func (j *Jobs) ProcessDueReminders() {
	ctx := context.Background()
	if err := j.reminders.ProcessDue(ctx); err != nil {
		j.logger.Error("reminder dispatch pass failed", "error", err)
		return
	}
}
