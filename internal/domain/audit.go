/**
 * @description
 * Append-only audit trail types. The scheduling engine and the periodic
 * sweep are the only writers.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the lifecycle transition or scheduling decision
// being recorded.
type AuditAction string

const (
	AuditActionCreated            AuditAction = "created"
	AuditActionRenewed            AuditAction = "renewed"
	AuditActionRemindersScheduled AuditAction = "remindersScheduled"
	AuditActionReminderSent       AuditAction = "reminderSent"
	AuditActionExpired            AuditAction = "expired"
	AuditActionCancelled          AuditAction = "cancelled"
)

// AuditEntry is one record in the subscription history. Entries are never
// updated or deleted.
type AuditEntry struct {
	ID             uuid.UUID      `json:"id"`
	SubscriptionID uuid.UUID      `json:"subscription_id"`
	Action         AuditAction    `json:"action"`
	Details        map[string]any `json:"details"`
	CreatedAt      time.Time      `json:"created_at"`
}
