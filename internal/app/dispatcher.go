/**
 * @description
 * Reminder dispatch. Planned instructions are persisted as pending reminder
 * rows (the upsert supersedes any prior pending row with the same label, so
 * re-planning never duplicates a dispatch). The dispatch pass publishes due
 * reminders to the notification boundary with a bounded retry budget; the
 * external runner confirms delivery through the reminder-task callback.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
	"github.com/samuelldmj/subscription-management-api/internal/schedule"
)

// DispatchRetryBudget is the number of publish attempts a reminder gets
// before it is recorded as failed.
const DispatchRetryBudget = 3

// reminderRoutingKey is the topic routing key for due reminder events.
const reminderRoutingKey = "reminder.due"

// ReminderStore defines the persistence operations the dispatcher needs.
type ReminderStore interface {
	UpsertReminder(ctx context.Context, reminder *domain.Reminder) error
	FindDueReminders(ctx context.Context, now time.Time) ([]domain.Reminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
	MarkReminderSkipped(ctx context.Context, id uuid.UUID) error
	RecordReminderFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (domain.ReminderStatus, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
}

// Publisher hands a payload to the external notification boundary.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any, notBefore time.Time) error
}

// Dispatcher owns the reminder dispatch lifecycle.
type Dispatcher struct {
	store     ReminderStore
	publisher Publisher
	clock     schedule.Clock
	logger    *slog.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(store ReminderStore, publisher Publisher, clock schedule.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, publisher: publisher, clock: clock, logger: logger}
}

// Dispatch persists a planned instruction as a pending reminder. A second
// dispatch for the same (subscription, label) resets the existing row
// instead of creating a duplicate.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *domain.Subscription, instr domain.ReminderInstruction) error {
	return d.store.UpsertReminder(ctx, &domain.Reminder{
		ID:             uuid.New(),
		SubscriptionID: instr.SubscriptionID,
		Label:          instr.Label,
		Type:           instr.Type,
		ScheduledAt:    instr.ScheduledAt,
		Status:         domain.ReminderStatusPending,
		UserEmail:      sub.OwnerEmail,
		UserName:       sub.OwnerName,
		Timezone:       sub.Timezone,
	})
}

// ProcessDue publishes every pending reminder whose scheduled instant has
// arrived. Each reminder is re-checked against its subscription's current
// status first, so reminders planned before a cancellation are no-ops. One
// publish attempt is made per pass; failures consume the retry budget and
// leave the row pending until the budget is exhausted.
func (d *Dispatcher) ProcessDue(ctx context.Context) error {
	now := d.clock.Now()
	due, err := d.store.FindDueReminders(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	d.logger.Info("processing due reminders", "count", len(due))

	for _, reminder := range due {
		sub, err := d.store.GetSubscription(ctx, reminder.SubscriptionID)
		if err != nil {
			d.logger.Error("failed to load subscription for reminder",
				"reminder_id", reminder.ID, "subscription_id", reminder.SubscriptionID, "error", err)
			if errors.Is(err, domain.ErrSubscriptionNotFound) {
				if skipErr := d.store.MarkReminderSkipped(ctx, reminder.ID); skipErr != nil {
					d.logger.Error("failed to mark reminder skipped", "reminder_id", reminder.ID, "error", skipErr)
				}
			}
			continue
		}

		if sub.Status != domain.StatusActive {
			d.logger.Info("skipping reminder for inactive subscription",
				"reminder_id", reminder.ID, "subscription_id", sub.ID, "status", sub.Status)
			if err := d.store.MarkReminderSkipped(ctx, reminder.ID); err != nil {
				d.logger.Error("failed to mark reminder skipped", "reminder_id", reminder.ID, "error", err)
			}
			continue
		}

		payload := domain.ReminderPayload{
			SubscriptionID: reminder.SubscriptionID.String(),
			ReminderLabel:  reminder.Label,
			UserEmail:      reminder.UserEmail,
			UserName:       reminder.UserName,
			ReminderType:   reminder.Type,
			ScheduledAt:    reminder.ScheduledAt,
			Timezone:       reminder.Timezone,
		}

		if err := d.publisher.Publish(ctx, reminderRoutingKey, payload, reminder.ScheduledAt); err != nil {
			status, recordErr := d.store.RecordReminderFailure(ctx, reminder.ID, DispatchRetryBudget)
			if recordErr != nil {
				d.logger.Error("failed to record reminder failure", "reminder_id", reminder.ID, "error", recordErr)
				continue
			}
			d.logger.Error("reminder delivery attempt failed",
				"reminder_id", reminder.ID, "subscription_id", sub.ID,
				"reminder_label", reminder.Label, "status", status,
				"error", fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err))
			continue
		}

		if err := d.store.MarkReminderSent(ctx, reminder.ID); err != nil {
			d.logger.Error("failed to mark reminder sent", "reminder_id", reminder.ID, "error", err)
			continue
		}
		d.logger.Info("handed reminder to notification boundary",
			"reminder_id", reminder.ID, "subscription_id", sub.ID, "reminder_label", reminder.Label)
	}

	return nil
}
