/**
 * @description
 * Reminder dispatch bookkeeping. The (subscription_id, reminder_label)
 * uniqueness constraint is what makes re-planning idempotent: scheduling the
 * same label again resets the existing row to pending instead of creating a
 * duplicate dispatch.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// UpsertReminder schedules a reminder, superseding any prior pending row
// with the same (subscription_id, reminder_label).
func (r *Repository) UpsertReminder(ctx context.Context, reminder *domain.Reminder) error {
	query := `
        INSERT INTO reminders (
            id, subscription_id, reminder_label, reminder_type, scheduled_at,
            status, attempts, user_email, user_name, timezone
        )
        VALUES ($1, $2, $3, $4, $5, 'pending', 0, $6, $7, $8)
        ON CONFLICT (subscription_id, reminder_label) DO UPDATE SET
            reminder_type = EXCLUDED.reminder_type,
            scheduled_at = EXCLUDED.scheduled_at,
            status = 'pending',
            attempts = 0,
            user_email = EXCLUDED.user_email,
            user_name = EXCLUDED.user_name,
            timezone = EXCLUDED.timezone,
            updated_at = NOW()
    `
	_, err := r.db.Exec(ctx, query,
		reminder.ID, reminder.SubscriptionID, reminder.Label, reminder.Type,
		reminder.ScheduledAt, reminder.UserEmail, reminder.UserName, reminder.Timezone,
	)
	return err
}

// FindDueReminders returns pending reminders whose scheduled instant has
// arrived, soonest first.
func (r *Repository) FindDueReminders(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	query := `
        SELECT id, subscription_id, reminder_label, reminder_type, scheduled_at,
               status, attempts, user_email, user_name, timezone
        FROM reminders
        WHERE status = 'pending' AND scheduled_at <= $1
        ORDER BY scheduled_at
    `
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		var reminder domain.Reminder
		err := rows.Scan(
			&reminder.ID, &reminder.SubscriptionID, &reminder.Label,
			&reminder.Type, &reminder.ScheduledAt, &reminder.Status,
			&reminder.Attempts, &reminder.UserEmail, &reminder.UserName,
			&reminder.Timezone,
		)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

// MarkReminderSent records a successful handoff to the notification boundary.
func (r *Repository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return r.setReminderStatus(ctx, id, domain.ReminderStatusSent)
}

// MarkReminderSkipped records a reminder that became a no-op before dispatch,
// e.g. because its subscription was cancelled.
func (r *Repository) MarkReminderSkipped(ctx context.Context, id uuid.UUID) error {
	return r.setReminderStatus(ctx, id, domain.ReminderStatusSkipped)
}

func (r *Repository) setReminderStatus(ctx context.Context, id uuid.UUID, status domain.ReminderStatus) error {
	query := `UPDATE reminders SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RecordReminderFailure increments the attempt counter and flips the row to
// failed once the retry budget is exhausted; otherwise it stays pending for
// the next dispatch pass. Returns the resulting status.
func (r *Repository) RecordReminderFailure(ctx context.Context, id uuid.UUID, maxAttempts int) (domain.ReminderStatus, error) {
	query := `
        UPDATE reminders
        SET attempts = attempts + 1,
            status = CASE WHEN attempts + 1 >= $1 THEN 'failed' ELSE 'pending' END,
            updated_at = NOW()
        WHERE id = $2
        RETURNING status
    `
	var status domain.ReminderStatus
	if err := r.db.QueryRow(ctx, query, maxAttempts, id).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}
