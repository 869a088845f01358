/**
 * @description
 * Append-only audit trail persistence. Entries are inserted and never
 * updated or deleted.
 */
package store

import (
	"context"
	"encoding/json"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// AppendAuditEntry records a scheduling decision outside any transaction.
func (r *Repository) AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	return appendAudit(ctx, r.db, entry)
}

// appendAudit writes an audit row through the pool or an open transaction.
func appendAudit(ctx context.Context, db execQuerier, entry *domain.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO subscription_history (subscription_id, action, details)
        VALUES ($1, $2, $3)
    `
	_, err = db.Exec(ctx, query, entry.SubscriptionID, entry.Action, details)
	return err
}
