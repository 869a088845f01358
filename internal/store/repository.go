/**
 * @description
 * This file implements the data access layer for the subscription-management-api.
 * The Repository owns the connection pool and the schema; the SQL for each
 * aggregate lives in its own file alongside this one.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for subscriptions, reminders and
// the audit trail.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// execQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so audit writes
// can join an enclosing transaction or run standalone.
type execQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables this service owns if they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
        CREATE TABLE IF NOT EXISTS subscriptions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            name TEXT NOT NULL,
            price NUMERIC(12, 2) NOT NULL CHECK (price >= 0),
            currency TEXT NOT NULL DEFAULT 'USD',
            frequency TEXT NOT NULL,
            category TEXT NOT NULL,
            payment_method TEXT NOT NULL DEFAULT 'Other',
            owner_id UUID NOT NULL,
            owner_email TEXT NOT NULL,
            owner_name TEXT NOT NULL,
            auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
            timezone TEXT NOT NULL DEFAULT 'UTC',
            start_date TIMESTAMPTZ NOT NULL,
            renewal_date TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL DEFAULT 'active',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT renewal_after_start CHECK (renewal_date > start_date)
        );
        CREATE INDEX IF NOT EXISTS idx_subscriptions_owner_id ON subscriptions (owner_id);
        CREATE INDEX IF NOT EXISTS idx_subscriptions_status_renewal ON subscriptions (status, renewal_date);

        CREATE TABLE IF NOT EXISTS reminders (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            subscription_id UUID NOT NULL REFERENCES subscriptions (id),
            reminder_label TEXT NOT NULL,
            reminder_type TEXT NOT NULL,
            scheduled_at TIMESTAMPTZ NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            attempts INT NOT NULL DEFAULT 0,
            user_email TEXT NOT NULL,
            user_name TEXT NOT NULL,
            timezone TEXT NOT NULL DEFAULT 'UTC',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT reminders_subscription_label_key UNIQUE (subscription_id, reminder_label)
        );
        CREATE INDEX IF NOT EXISTS idx_reminders_status_scheduled ON reminders (status, scheduled_at);

        CREATE TABLE IF NOT EXISTS subscription_history (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            subscription_id UUID NOT NULL,
            action TEXT NOT NULL,
            details JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_history_subscription_id ON subscription_history (subscription_id);
    `
	_, err := r.db.Exec(ctx, schema)
	return err
}
