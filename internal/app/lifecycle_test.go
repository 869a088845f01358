package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/domain"
)

// memoryRepo is an in-memory repository with the same conditional-write
// semantics as the SQL layer, used to exercise the create/sweep/renew cycle
// end to end.
type memoryRepo struct {
	subs   map[uuid.UUID]*domain.Subscription
	audits []domain.AuditEntry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{subs: make(map[uuid.UUID]*domain.Subscription)}
}

func (m *memoryRepo) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	stored := *sub
	m.subs[sub.ID] = &stored
	m.audits = append(m.audits, domain.AuditEntry{
		SubscriptionID: sub.ID,
		Action:         domain.AuditActionCreated,
	})
	return nil
}

func (m *memoryRepo) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (m *memoryRepo) ListSubscriptionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, sub := range m.subs {
		if sub.OwnerID == ownerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memoryRepo) RenewSubscription(ctx context.Context, id uuid.UUID, expectedRenewal, nextRenewal time.Time, autoRenew *bool) (*domain.Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	if sub.Status != domain.StatusActive || !sub.RenewalDate.Equal(expectedRenewal) {
		return nil, domain.ErrPersistenceConflict
	}
	sub.RenewalDate = nextRenewal
	if autoRenew != nil {
		sub.AutoRenew = *autoRenew
	}
	m.audits = append(m.audits, domain.AuditEntry{
		SubscriptionID: id,
		Action:         domain.AuditActionRenewed,
	})
	copied := *sub
	return &copied, nil
}

func (m *memoryRepo) CancelSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	if sub.Status != domain.StatusActive {
		return nil, domain.ErrPersistenceConflict
	}
	sub.Status = domain.StatusCancelled
	m.audits = append(m.audits, domain.AuditEntry{
		SubscriptionID: id,
		Action:         domain.AuditActionCancelled,
	})
	copied := *sub
	return &copied, nil
}

func (m *memoryRepo) AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memoryRepo) FindSubscriptionsToExpire(ctx context.Context, graceCutoff time.Time) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, sub := range m.subs {
		if sub.Status == domain.StatusActive && !sub.RenewalDate.After(graceCutoff) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memoryRepo) ExpireSubscription(ctx context.Context, id uuid.UUID, renewalDate time.Time) error {
	sub, ok := m.subs[id]
	if !ok {
		return domain.ErrSubscriptionNotFound
	}
	if sub.Status != domain.StatusActive || !sub.RenewalDate.Equal(renewalDate) {
		return domain.ErrPersistenceConflict
	}
	sub.Status = domain.StatusExpired
	m.audits = append(m.audits, domain.AuditEntry{
		SubscriptionID: id,
		Action:         domain.AuditActionExpired,
	})
	return nil
}

func (m *memoryRepo) FindSubscriptionsToRenew(ctx context.Context, after, until time.Time) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, sub := range m.subs {
		if sub.Status == domain.StatusActive && sub.AutoRenew &&
			sub.RenewalDate.After(after) && !sub.RenewalDate.After(until) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *memoryRepo) countAudits(action domain.AuditAction) int {
	n := 0
	for _, entry := range m.audits {
		if entry.Action == action {
			n++
		}
	}
	return n
}

type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time { return c.now }

func TestYearlySubscription_SweepRenewsOnceAfterAYear(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemoryRepo()
	dispatcher := &dispatcherStub{}
	clock := &movableClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	service := NewService(repo, dispatcher, clock, logger)
	jobs := NewJobs(repo, service, &processorStub{}, clock, logger)

	input := validCreateInput(uuid.New())
	input.Frequency = domain.FrequencyYearly
	sub, _, err := service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstRenewal := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	if !sub.RenewalDate.Equal(firstRenewal) {
		t.Fatalf("expected first renewal %v, got %v", firstRenewal, sub.RenewalDate)
	}

	// A year and a day later the renewal date has been missed by one day.
	clock.now = clock.now.AddDate(0, 0, 366)
	jobs.ProcessSubscriptionTasks()

	if got := repo.countAudits(domain.AuditActionRenewed); got != 1 {
		t.Fatalf("expected exactly one renewal recorded, got %d", got)
	}
	current, err := repo.GetSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Status != domain.StatusActive {
		t.Fatalf("expected subscription to stay active, got %s", current.Status)
	}
	wantNext := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	if !current.RenewalDate.Equal(wantNext) {
		t.Fatalf("expected renewal anchored at the missed date %v, got %v", wantNext, current.RenewalDate)
	}

	// The renewal re-planned a full pre-renewal set against the new date.
	fresh := dispatcher.dispatched[len(dispatcher.dispatched)-4:]
	for _, instr := range fresh {
		if !strings.HasSuffix(instr.Label, "-pre-renewal") {
			t.Errorf("expected a pre-renewal reminder, got %s", instr.Label)
		}
		if !instr.ScheduledAt.After(clock.now) {
			t.Errorf("expected reminder %s to be in the future, got %v", instr.Label, instr.ScheduledAt)
		}
	}

	// A second sweep at the same instant finds nothing to do.
	jobs.ProcessSubscriptionTasks()
	if got := repo.countAudits(domain.AuditActionRenewed); got != 1 {
		t.Fatalf("expected the second sweep to renew nothing, got %d renewals", got)
	}
}

func TestLapsedSubscription_SweepExpiresInsteadOfRenewing(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemoryRepo()
	dispatcher := &dispatcherStub{}
	clock := &movableClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	service := NewService(repo, dispatcher, clock, logger)
	jobs := NewJobs(repo, service, &processorStub{}, clock, logger)

	input := validCreateInput(uuid.New())
	input.Frequency = domain.FrequencyMonthly
	sub, _, err := service.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Well past renewal plus the grace window.
	clock.now = clock.now.AddDate(0, 0, 45)
	jobs.ProcessSubscriptionTasks()

	current, err := repo.GetSubscription(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if current.Status != domain.StatusExpired {
		t.Fatalf("expected subscription to expire, got %s", current.Status)
	}
	if got := repo.countAudits(domain.AuditActionExpired); got != 1 {
		t.Fatalf("expected one expired audit entry, got %d", got)
	}
	if got := repo.countAudits(domain.AuditActionRenewed); got != 0 {
		t.Fatalf("expected no renewal for a lapsed subscription, got %d", got)
	}
}
