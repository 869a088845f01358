package domain

import "errors"

// Error taxonomy shared across the service, store and API layers.
var (
	// ErrInvalidFrequency is returned when a billing frequency is not one of
	// daily, weekly, monthly or yearly.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrStartDateInPast is returned when a caller-supplied start date falls
	// before today in the subscription's timezone.
	ErrStartDateInPast = errors.New("start date cannot be in the past")

	// ErrInvalidStartDateFormat is returned when a start date cannot be
	// parsed as a calendar day.
	ErrInvalidStartDateFormat = errors.New("invalid start date format")

	// ErrSubscriptionNotFound is returned when no subscription exists for
	// the requested id.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrNotAuthorized is returned when the caller does not own the
	// subscription being read or mutated.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrMalformedReminderPayload is returned at the delivery boundary when
	// a reminder payload is missing required fields. Nothing is recorded to
	// the audit log in that case.
	ErrMalformedReminderPayload = errors.New("malformed reminder payload")

	// ErrDeliveryFailed wraps a transient failure handing a reminder to the
	// notification boundary. Retryable within the dispatch budget.
	ErrDeliveryFailed = errors.New("reminder delivery failed")

	// ErrPersistenceConflict is returned when a conditional write loses the
	// renewal race: the subscription changed between read and write.
	ErrPersistenceConflict = errors.New("persistence conflict")
)
