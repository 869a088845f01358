/**
 * @description
 * Reminder planning: turns a subscription's phase and renewal date into the
 * ordered set of reminder instructions still worth dispatching.
 */
package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// Reminder day offsets relative to the renewal date.
var (
	preRenewalOffsets  = []int{7, 5, 2, 1}
	gracePeriodOffsets = []int{1, 3, 5}
)

// Plan computes the reminder instructions for a subscription.
//
// Pre-renewal reminders fall {7,5,2,1} days before the renewal date, grace
// reminders {1,3,5} days after it, each at local midnight in loc. Candidates
// at or before now are dropped rather than dispatched late. An expired phase
// plans nothing; the sweep expires the subscription instead. The result is
// ordered ascending by scheduled instant, so the first element is the next
// reminder due.
func Plan(phase Phase, subscriptionID uuid.UUID, renewalDate, now time.Time, loc *time.Location) []domain.ReminderInstruction {
	var offsets []int
	var kind domain.ReminderType

	switch phase {
	case PhasePreRenewal:
		offsets = preRenewalOffsets
		kind = domain.ReminderTypePreRenewal
	case PhaseGracePeriod:
		offsets = gracePeriodOffsets
		kind = domain.ReminderTypeGracePeriod
	default:
		return nil
	}

	instructions := make([]domain.ReminderInstruction, 0, len(offsets))
	for _, days := range offsets {
		var scheduledAt time.Time
		var label string
		if kind == domain.ReminderTypePreRenewal {
			scheduledAt = addDays(renewalDate, -days, loc)
			label = fmt.Sprintf("%d-day-pre-renewal", days)
		} else {
			scheduledAt = addDays(renewalDate, days, loc)
			label = fmt.Sprintf("%d-day-grace-period", days)
		}

		if !scheduledAt.After(now) {
			continue
		}

		instructions = append(instructions, domain.ReminderInstruction{
			SubscriptionID: subscriptionID,
			Label:          label,
			Type:           kind,
			ScheduledAt:    scheduledAt,
		})
	}

	sort.Slice(instructions, func(i, j int) bool {
		return instructions[i].ScheduledAt.Before(instructions[j].ScheduledAt)
	})
	return instructions
}
