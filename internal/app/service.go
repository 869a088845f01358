/**
 * @description
 * This file contains the core business logic for subscription lifecycle
 * management: creation, renewal, cancellation, and the reminder planning
 * that follows every renewal-date change. The Service is the only writer of
 * renewal dates and the only trigger of the reminder dispatcher.
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

// ErrInvalidInput is returned for request fields that fail basic validation
// (name length, negative price, unknown enum values, bad timezone).
var ErrInvalidInput = errors.New("invalid subscription input")

// startDateLayout is the calendar-day format accepted for start dates.
const startDateLayout = "2006-01-02"

// Repository defines the interface for database operations that the service needs.
type Repository interface {
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	ListSubscriptionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error)
	RenewSubscription(ctx context.Context, id uuid.UUID, expectedRenewal, nextRenewal time.Time, autoRenew *bool) (*domain.Subscription, error)
	CancelSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error
}

// ReminderDispatcher hands planned reminder instructions to the dispatch
// boundary. Dispatch failures are not propagated to API callers; the
// instruction set is already recorded and the dispatch pass retries.
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, sub *domain.Subscription, instr domain.ReminderInstruction) error
}

// Service provides the business logic for subscription scheduling.
type Service struct {
	repo       Repository
	dispatcher ReminderDispatcher
	clock      schedule.Clock
	logger     *slog.Logger
}

// NewService creates a new scheduling service.
func NewService(repo Repository, dispatcher ReminderDispatcher, clock schedule.Clock, logger *slog.Logger) Service {
	return Service{repo: repo, dispatcher: dispatcher, clock: clock, logger: logger}
}

// CreateSubscriptionInput carries the caller-supplied fields for a new
// subscription. StartDate is an optional YYYY-MM-DD calendar day in the
// subscription's timezone; empty means today.
type CreateSubscriptionInput struct {
	Name          string
	Price         float64
	Currency      domain.Currency
	Frequency     domain.Frequency
	Category      domain.Category
	PaymentMethod domain.PaymentMethod
	StartDate     string
	AutoRenew     *bool
	Timezone      string
	OwnerID       uuid.UUID
	OwnerEmail    string
	OwnerName     string
}

// Create validates the input, computes the first renewal date, persists the
// subscription together with its 'created' audit entry, and schedules the
// initial reminder set. Validation failures leave no state behind.
func (s Service) Create(ctx context.Context, input CreateSubscriptionInput) (*domain.Subscription, []domain.ReminderInstruction, error) {
	if len(input.Name) < 2 || len(input.Name) > 100 {
		return nil, nil, fmt.Errorf("%w: name must be between 2 and 100 characters", ErrInvalidInput)
	}
	if input.Price < 0 {
		return nil, nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if !input.Frequency.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, input.Frequency)
	}

	currency := input.Currency
	if currency == "" {
		currency = domain.CurrencyUSD
	}
	if !currency.Valid() {
		return nil, nil, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, currency)
	}
	if !input.Category.Valid() {
		return nil, nil, fmt.Errorf("%w: unsupported category %q", ErrInvalidInput, input.Category)
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = domain.PaymentMethodOther
	}
	if !paymentMethod.Valid() {
		return nil, nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, paymentMethod)
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := schedule.Location(timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, timezone)
	}

	now := s.clock.Now()
	today := schedule.LocalMidnight(now, loc)

	startDate := today
	if input.StartDate != "" {
		parsed, err := time.ParseInLocation(startDateLayout, input.StartDate, loc)
		if err != nil {
			return nil, nil, domain.ErrInvalidStartDateFormat
		}
		startDate = parsed.UTC()
		if startDate.Before(today) {
			return nil, nil, domain.ErrStartDateInPast
		}
	}

	renewalDate, err := schedule.NextRenewal(startDate, input.Frequency, loc)
	if err != nil {
		return nil, nil, err
	}

	autoRenew := true
	if input.AutoRenew != nil {
		autoRenew = *input.AutoRenew
	}

	sub := &domain.Subscription{
		ID:            uuid.New(),
		Name:          input.Name,
		Price:         input.Price,
		Currency:      currency,
		Frequency:     input.Frequency,
		Category:      input.Category,
		PaymentMethod: paymentMethod,
		OwnerID:       input.OwnerID,
		OwnerEmail:    input.OwnerEmail,
		OwnerName:     input.OwnerName,
		AutoRenew:     autoRenew,
		Timezone:      timezone,
		StartDate:     startDate,
		RenewalDate:   renewalDate,
		Status:        domain.StatusActive,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, nil, err
	}

	planned := s.scheduleReminders(ctx, sub)
	return sub, planned, nil
}

// Renew advances the subscription's renewal date by one frequency unit,
// anchored at the current renewal date so a late renewal does not compress
// the following period, then re-plans the reminder set.
func (s Service) Renew(ctx context.Context, callerID, subscriptionID uuid.UUID, autoRenew *bool) (*domain.Subscription, []domain.ReminderInstruction, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if sub.OwnerID != callerID {
		return nil, nil, domain.ErrNotAuthorized
	}

	updated, err := s.renew(ctx, sub, autoRenew)
	if err != nil {
		return nil, nil, err
	}

	planned := s.scheduleReminders(ctx, updated)
	return updated, planned, nil
}

// AutoRenew renews on behalf of the periodic sweep. The conditional write in
// the repository is the guard against racing an API-triggered renewal of the
// same subscription.
func (s Service) AutoRenew(ctx context.Context, sub *domain.Subscription) error {
	updated, err := s.renew(ctx, sub, nil)
	if err != nil {
		return err
	}
	s.scheduleReminders(ctx, updated)
	return nil
}

func (s Service) renew(ctx context.Context, sub *domain.Subscription, autoRenew *bool) (*domain.Subscription, error) {
	loc, err := schedule.Location(sub.Timezone)
	if err != nil {
		return nil, fmt.Errorf("subscription %s has invalid timezone %q: %w", sub.ID, sub.Timezone, err)
	}

	nextRenewal, err := schedule.NextRenewal(sub.RenewalDate, sub.Frequency, loc)
	if err != nil {
		return nil, err
	}

	return s.repo.RenewSubscription(ctx, sub.ID, sub.RenewalDate, nextRenewal, autoRenew)
}

// Get retrieves a single subscription, enforcing ownership.
func (s Service) Get(ctx context.Context, callerID, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.OwnerID != callerID {
		return nil, domain.ErrNotAuthorized
	}
	return sub, nil
}

// List retrieves all subscriptions for an owner. Callers may only list their
// own subscriptions.
func (s Service) List(ctx context.Context, callerID, ownerID uuid.UUID) ([]domain.Subscription, error) {
	if callerID != ownerID {
		return nil, domain.ErrNotAuthorized
	}
	return s.repo.ListSubscriptionsByOwner(ctx, ownerID)
}

// Cancel marks the subscription cancelled. Reminders already planned become
// no-ops at delivery time; the delivery path re-checks status.
func (s Service) Cancel(ctx context.Context, callerID, subscriptionID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.OwnerID != callerID {
		return nil, domain.ErrNotAuthorized
	}
	return s.repo.CancelSubscription(ctx, subscriptionID)
}

// DeliverReminder handles the delivery callback from the external scheduler.
// It validates the payload, re-checks that the subscription is still active
// and still in the phase the reminder was planned for, and records the
// 'reminderSent' audit entry. Returns false (with no audit entry) when the
// reminder has gone stale and delivery is a no-op.
func (s Service) DeliverReminder(ctx context.Context, payload domain.ReminderPayload) (bool, error) {
	if err := payload.Validate(); err != nil {
		return false, err
	}
	subscriptionID, err := uuid.Parse(payload.SubscriptionID)
	if err != nil {
		return false, domain.ErrMalformedReminderPayload
	}

	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return false, err
	}
	if sub.Status != domain.StatusActive {
		s.logger.Info("skipping reminder for inactive subscription",
			"subscription_id", sub.ID, "status", sub.Status, "reminder_label", payload.ReminderLabel)
		return false, nil
	}

	loc, err := schedule.Location(sub.Timezone)
	if err != nil {
		return false, err
	}
	phase := schedule.Classify(s.clock.Now(), sub.RenewalDate, loc)
	if !phaseMatchesReminderType(phase, payload.ReminderType) {
		s.logger.Info("skipping stale reminder",
			"subscription_id", sub.ID, "phase", phase, "reminder_label", payload.ReminderLabel)
		return false, nil
	}

	err = s.repo.AppendAuditEntry(ctx, &domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionReminderSent,
		Details: map[string]any{
			"reminderLabel": payload.ReminderLabel,
			"reminderType":  payload.ReminderType,
			"userEmail":     payload.UserEmail,
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func phaseMatchesReminderType(phase schedule.Phase, kind domain.ReminderType) bool {
	switch kind {
	case domain.ReminderTypePreRenewal:
		return phase == schedule.PhasePreRenewal
	case domain.ReminderTypeGracePeriod:
		return phase == schedule.PhaseGracePeriod
	}
	return false
}

// scheduleReminders classifies the subscription's phase, plans the reminder
// set, hands each instruction to the dispatcher, and records what was
// planned. Dispatch failures are logged rather than propagated: the caller's
// state change has already committed.
func (s Service) scheduleReminders(ctx context.Context, sub *domain.Subscription) []domain.ReminderInstruction {
	loc, err := schedule.Location(sub.Timezone)
	if err != nil {
		s.logger.Error("cannot plan reminders for invalid timezone",
			"subscription_id", sub.ID, "timezone", sub.Timezone, "error", err)
		return nil
	}

	now := s.clock.Now()
	phase := schedule.Classify(now, sub.RenewalDate, loc)
	planned := schedule.Plan(phase, sub.ID, sub.RenewalDate, now, loc)

	scheduled := make([]map[string]any, 0, len(planned))
	for _, instr := range planned {
		if err := s.dispatcher.Dispatch(ctx, sub, instr); err != nil {
			s.logger.Error("failed to dispatch reminder instruction",
				"subscription_id", sub.ID, "reminder_label", instr.Label, "error", err)
			continue
		}
		scheduled = append(scheduled, map[string]any{
			"reminderLabel": instr.Label,
			"scheduledAt":   instr.ScheduledAt,
		})
		s.logger.Info("scheduled reminder",
			"subscription_id", sub.ID, "reminder_label", instr.Label,
			"scheduled_at", instr.ScheduledAt, "timezone", sub.Timezone)
	}

	err = s.repo.AppendAuditEntry(ctx, &domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionRemindersScheduled,
		Details: map[string]any{
			"phase":              phase,
			"scheduledReminders": scheduled,
		},
	})
	if err != nil {
		s.logger.Error("failed to record scheduled reminders",
			"subscription_id", sub.ID, "error", err)
	}

	return planned
}
