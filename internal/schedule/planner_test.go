package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

func labels(instructions []domain.ReminderInstruction) []string {
	out := make([]string, len(instructions))
	for i, instr := range instructions {
		out[i] = instr.Label
	}
	return out
}

func TestPlan_PreRenewalDropsElapsedOffsets(t *testing.T) {
	// Renewal on June 10, planning at noon on June 6: the 7-day (June 3) and
	// 5-day (June 5) candidates already elapsed, leaving the 2-day (June 8)
	// and 1-day (June 9) reminders.
	renewal := day(2025, time.June, 10)
	now := time.Date(2025, time.June, 6, 12, 0, 0, 0, time.UTC)

	got := Plan(PhasePreRenewal, uuid.New(), renewal, now, time.UTC)

	want := []string{"2-day-pre-renewal", "1-day-pre-renewal"}
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d (%v)", len(want), len(got), labels(got))
	}
	for i, label := range want {
		if got[i].Label != label {
			t.Fatalf("instruction %d: expected %s, got %s", i, label, got[i].Label)
		}
	}
	if !got[0].ScheduledAt.Equal(day(2025, time.June, 8)) || !got[1].ScheduledAt.Equal(day(2025, time.June, 9)) {
		t.Fatalf("unexpected scheduled instants: %v, %v", got[0].ScheduledAt, got[1].ScheduledAt)
	}
}

func TestPlan_GracePeriodDropsElapsedOffsets(t *testing.T) {
	// Renewal on June 10, planning on June 12: the 1-day candidate (June 11)
	// elapsed, leaving the 3-day (June 13) and 5-day (June 15) reminders.
	renewal := day(2025, time.June, 10)
	now := day(2025, time.June, 12)

	got := Plan(PhaseGracePeriod, uuid.New(), renewal, now, time.UTC)

	want := []string{"3-day-grace-period", "5-day-grace-period"}
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d (%v)", len(want), len(got), labels(got))
	}
	for i, label := range want {
		if got[i].Label != label {
			t.Fatalf("instruction %d: expected %s, got %s", i, label, got[i].Label)
		}
		if got[i].Type != domain.ReminderTypeGracePeriod {
			t.Fatalf("instruction %d: expected grace-period type, got %s", i, got[i].Type)
		}
	}
}

func TestPlan_FullPreRenewalSetAscending(t *testing.T) {
	renewal := day(2025, time.June, 10)
	now := day(2025, time.May, 1)

	got := Plan(PhasePreRenewal, uuid.New(), renewal, now, time.UTC)
	if len(got) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].ScheduledAt.Before(got[i].ScheduledAt) {
			t.Fatalf("instructions not ascending: %v then %v", got[i-1].ScheduledAt, got[i].ScheduledAt)
		}
	}
	if got[0].Label != "7-day-pre-renewal" || got[3].Label != "1-day-pre-renewal" {
		t.Fatalf("unexpected ordering: %v", labels(got))
	}
}

func TestPlan_ExpiredPlansNothing(t *testing.T) {
	got := Plan(PhaseExpired, uuid.New(), day(2025, time.June, 10), day(2025, time.July, 1), time.UTC)
	if len(got) != 0 {
		t.Fatalf("expected no instructions for expired phase, got %v", labels(got))
	}
}

func TestPlan_ScheduledAtLocalMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load zone: %v", err)
	}
	renewal := time.Date(2025, time.June, 10, 0, 0, 0, 0, loc).UTC()
	now := time.Date(2025, time.May, 1, 0, 0, 0, 0, loc).UTC()

	got := Plan(PhasePreRenewal, uuid.New(), renewal, now, loc)
	if len(got) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(got))
	}
	for _, instr := range got {
		local := instr.ScheduledAt.In(loc)
		if local.Hour() != 0 || local.Minute() != 0 {
			t.Fatalf("%s not at local midnight: %v", instr.Label, local)
		}
	}
}
