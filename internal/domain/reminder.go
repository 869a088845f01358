/**
 * @description
 * Reminder types: the planned instruction produced by the planner, the
 * persisted reminder row used for dispatch bookkeeping, and the wire payload
 * delivered to the notification boundary.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReminderType distinguishes reminders sent before the renewal date from
// reminders sent during the grace period after a missed renewal.
type ReminderType string

const (
	ReminderTypePreRenewal  ReminderType = "pre-renewal"
	ReminderTypeGracePeriod ReminderType = "grace-period"
)

// ReminderStatus is the dispatch state of a persisted reminder.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusFailed  ReminderStatus = "failed"
	ReminderStatusSkipped ReminderStatus = "skipped"
)

// ReminderInstruction is a planned, labeled notification to be dispatched
// once. (SubscriptionID, Label) identifies at most one pending dispatch at a
// time; re-planning supersedes prior pending instructions with the same key.
type ReminderInstruction struct {
	SubscriptionID uuid.UUID    `json:"subscription_id"`
	Label          string       `json:"reminder_label"`
	Type           ReminderType `json:"reminder_type"`
	ScheduledAt    time.Time    `json:"scheduled_at"`
}

// Reminder is the persisted dispatch record for a reminder instruction.
type Reminder struct {
	ID             uuid.UUID      `json:"id"`
	SubscriptionID uuid.UUID      `json:"subscription_id"`
	Label          string         `json:"reminder_label"`
	Type           ReminderType   `json:"reminder_type"`
	ScheduledAt    time.Time      `json:"scheduled_at"`
	Status         ReminderStatus `json:"status"`
	Attempts       int            `json:"attempts"`
	UserEmail      string         `json:"user_email"`
	UserName       string         `json:"user_name"`
	Timezone       string         `json:"timezone"`
}

// ReminderPayload is the body handed to the external notification boundary
// and received back on the delivery callback.
type ReminderPayload struct {
	SubscriptionID string       `json:"subscriptionId"`
	ReminderLabel  string       `json:"reminderLabel"`
	UserEmail      string       `json:"userEmail"`
	UserName       string       `json:"userName"`
	ReminderType   ReminderType `json:"reminderType"`
	ScheduledAt    time.Time    `json:"scheduledAt,omitempty"`
	Timezone       string       `json:"timezone,omitempty"`
}

// Validate checks the five required delivery fields are present.
func (p ReminderPayload) Validate() error {
	if p.SubscriptionID == "" || p.ReminderLabel == "" || p.UserEmail == "" ||
		p.UserName == "" || p.ReminderType == "" {
		return ErrMalformedReminderPayload
	}
	if p.ReminderType != ReminderTypePreRenewal && p.ReminderType != ReminderTypeGracePeriod {
		return ErrMalformedReminderPayload
	}
	return nil
}
