/**
 * @description
 * Subscription persistence. Lifecycle transitions that must be atomic with
 * their audit entry (create, renew, cancel, expire) run inside a single
 * transaction, and every write that races the sweep is a conditional update
 * so a lost race surfaces as ErrPersistenceConflict instead of a silent
 * double-renewal.
 */
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

const subscriptionColumns = `
    id, name, price, currency, frequency, category, payment_method,
    owner_id, owner_email, owner_name, auto_renew, timezone,
    start_date, renewal_date, status, created_at, updated_at`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency,
		&sub.Category, &sub.PaymentMethod, &sub.OwnerID, &sub.OwnerEmail,
		&sub.OwnerName, &sub.AutoRenew, &sub.Timezone, &sub.StartDate,
		&sub.RenewalDate, &sub.Status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription inserts a subscription and its 'created' audit entry in
// one transaction.
func (r *Repository) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO subscriptions (
            id, name, price, currency, frequency, category, payment_method,
            owner_id, owner_email, owner_name, auto_renew, timezone,
            start_date, renewal_date, status
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING created_at, updated_at
    `
	err = tx.QueryRow(ctx, query,
		sub.ID, sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.PaymentMethod, sub.OwnerID, sub.OwnerEmail, sub.OwnerName,
		sub.AutoRenew, sub.Timezone, sub.StartDate, sub.RenewalDate, sub.Status,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return err
	}

	err = appendAudit(ctx, tx, &domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionCreated,
		Details: map[string]any{
			"startDate":   sub.StartDate,
			"renewalDate": sub.RenewalDate,
			"frequency":   sub.Frequency,
			"autoRenew":   sub.AutoRenew,
		},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetSubscription retrieves a subscription by id.
func (r *Repository) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ListSubscriptionsByOwner retrieves all subscriptions belonging to a user.
func (r *Repository) ListSubscriptionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// RenewSubscription advances the renewal date, conditional on the
// subscription still being active with the renewal date the caller read.
// Zero rows updated means another writer renewed, cancelled or expired it
// first; that is reported as ErrPersistenceConflict (or not-found when the
// row is gone entirely). The 'renewed' audit entry commits atomically with
// the update.
func (r *Repository) RenewSubscription(ctx context.Context, id uuid.UUID, expectedRenewal, nextRenewal time.Time, autoRenew *bool) (*domain.Subscription, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE subscriptions
        SET renewal_date = $1,
            status = 'active',
            auto_renew = COALESCE($2, auto_renew),
            updated_at = NOW()
        WHERE id = $3 AND status = 'active' AND renewal_date = $4
        RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRow(ctx, query, nextRenewal, autoRenew, id, expectedRenewal))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyConflict(ctx, id)
		}
		return nil, err
	}

	err = appendAudit(ctx, tx, &domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionRenewed,
		Details: map[string]any{
			"newRenewalDate": sub.RenewalDate,
			"autoRenew":      sub.AutoRenew,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelSubscription marks an active subscription cancelled. The record is
// never deleted.
func (r *Repository) CancelSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE subscriptions
        SET status = 'cancelled', updated_at = NOW()
        WHERE id = $1 AND status = 'active'
        RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, r.classifyConflict(ctx, id)
		}
		return nil, err
	}

	err = appendAudit(ctx, tx, &domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionCancelled,
		Details:        map[string]any{"renewalDate": sub.RenewalDate},
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sub, nil
}

// ExpireSubscription flips an active subscription to expired, conditional on
// the renewal date the sweep read.
func (r *Repository) ExpireSubscription(ctx context.Context, id uuid.UUID, renewalDate time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE subscriptions
        SET status = 'expired', updated_at = NOW()
        WHERE id = $1 AND status = 'active' AND renewal_date = $2
    `
	result, err := tx.Exec(ctx, query, id, renewalDate)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPersistenceConflict
	}

	err = appendAudit(ctx, tx, &domain.AuditEntry{
		SubscriptionID: id,
		Action:         domain.AuditActionExpired,
		Details:        map[string]any{"renewalDate": renewalDate},
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindSubscriptionsToExpire returns active subscriptions whose renewal date
// is at or before the grace cutoff (the grace window has fully elapsed).
func (r *Repository) FindSubscriptionsToExpire(ctx context.Context, graceCutoff time.Time) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE status = 'active' AND renewal_date <= $1
        ORDER BY renewal_date`
	return r.querySubscriptions(ctx, query, graceCutoff)
}

// FindSubscriptionsToRenew returns active, auto-renewing subscriptions whose
// renewal date lies inside the open-closed interval (after, until]. The
// exclusive lower bound keeps this set disjoint from the expiration pass.
func (r *Repository) FindSubscriptionsToRenew(ctx context.Context, after, until time.Time) ([]domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
        FROM subscriptions
        WHERE status = 'active' AND auto_renew = TRUE
          AND renewal_date > $1 AND renewal_date <= $2
        ORDER BY renewal_date`
	return r.querySubscriptions(ctx, query, after, until)
}

func (r *Repository) querySubscriptions(ctx context.Context, query string, args ...any) ([]domain.Subscription, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// classifyConflict decides whether a zero-row conditional update means the
// subscription is missing or was concurrently modified.
func (r *Repository) classifyConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrSubscriptionNotFound
	}
	return domain.ErrPersistenceConflict
}
