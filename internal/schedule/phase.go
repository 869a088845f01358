/**
 * @description
 * Phase derivation: given the current instant and a subscription's renewal
 * date, decide whether the subscription is before renewal, inside the grace
 * window, or past it.
 */
package schedule

import "time"

// Phase is the derived notification state of a subscription.
type Phase string

const (
	PhasePreRenewal  Phase = "pre-renewal"
	PhaseGracePeriod Phase = "grace-period"
	PhaseExpired     Phase = "expired"
)

// GracePeriodDays is the fixed window after a missed renewal during which a
// subscription is still considered recoverable.
const GracePeriodDays = 7

// Classify derives the phase of a subscription at now.
//
// grace-period when renewalDate <= now < renewalDate + GracePeriodDays,
// expired when now >= that boundary, pre-renewal otherwise. The grace
// boundary is computed in calendar days in loc, so it stays anchored to
// local midnight across DST transitions.
func Classify(now, renewalDate time.Time, loc *time.Location) Phase {
	graceEnd := addDays(renewalDate, GracePeriodDays, loc)
	switch {
	case !now.Before(graceEnd):
		return PhaseExpired
	case !now.Before(renewalDate):
		return PhaseGracePeriod
	default:
		return PhasePreRenewal
	}
}

// GraceWindowEnd returns the instant the grace window closes for the given
// renewal date.
func GraceWindowEnd(renewalDate time.Time, loc *time.Location) time.Time {
	return addDays(renewalDate, GracePeriodDays, loc)
}

// addDays shifts t by whole calendar days in loc, keeping local midnight,
// and returns the UTC instant.
func addDays(t time.Time, days int, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day+days, 0, 0, 0, 0, loc).UTC()
}
