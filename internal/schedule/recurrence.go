/**
 * @description
 * Calendar arithmetic for renewal dates. Renewal dates are stored as the UTC
 * instant of local midnight in the subscription's timezone, and advancing
 * them adds one calendar unit rather than a fixed duration, so a monthly
 * subscription renews on the same day-of-month regardless of month length.
 */
package schedule

import (
	"time"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// NextRenewal returns the renewal date one frequency unit after anchor,
// evaluated in loc and normalized to local midnight, as a UTC instant.
//
// Month and year addition clamp to the end of the target month: one month
// after Jan 31 is the last day of February, and one year after Feb 29 is
// Feb 28. time.AddDate would overflow into the following month instead.
func NextRenewal(anchor time.Time, frequency domain.Frequency, loc *time.Location) (time.Time, error) {
	local := anchor.In(loc)
	year, month, day := local.Date()

	switch frequency {
	case domain.FrequencyDaily:
		day++
	case domain.FrequencyWeekly:
		day += 7
	case domain.FrequencyMonthly:
		year, month, day = addMonthsClamped(year, month, day, 1)
	case domain.FrequencyYearly:
		year++
		if max := daysInMonth(year, month); day > max {
			day = max
		}
	default:
		return time.Time{}, domain.ErrInvalidFrequency
	}

	// time.Date normalizes day overflow for the daily/weekly cases.
	return time.Date(year, month, day, 0, 0, 0, 0, loc).UTC(), nil
}

// addMonthsClamped advances a calendar day by whole months, clamping the
// day-of-month to the length of the target month.
func addMonthsClamped(year int, month time.Month, day, months int) (int, time.Month, int) {
	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	return year, month, day
}

// daysInMonth returns the number of days in the given month. Day 0 of the
// following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// LocalMidnight truncates t to the start of its day in loc and returns the
// corresponding UTC instant.
func LocalMidnight(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc).UTC()
}
