package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samuelldmj/subscription-management-api/internal/app"
	"github.com/samuelldmj/subscription-management-api/internal/domain"
	"github.com/samuelldmj/subscription-management-api/internal/schedule"
)

type apiRepoStub struct {
	sub    *domain.Subscription
	getErr error
	audits []domain.AuditEntry
}

func (s *apiRepoStub) CreateSubscription(ctx context.Context, sub *domain.Subscription) error {
	return nil
}

func (s *apiRepoStub) GetSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sub, nil
}

func (s *apiRepoStub) ListSubscriptionsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Subscription, error) {
	return nil, nil
}

func (s *apiRepoStub) RenewSubscription(ctx context.Context, id uuid.UUID, expectedRenewal, nextRenewal time.Time, autoRenew *bool) (*domain.Subscription, error) {
	return s.sub, nil
}

func (s *apiRepoStub) CancelSubscription(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return s.sub, nil
}

func (s *apiRepoStub) AppendAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	s.audits = append(s.audits, *entry)
	return nil
}

type apiDispatcherStub struct{}

func (apiDispatcherStub) Dispatch(ctx context.Context, sub *domain.Subscription, instr domain.ReminderInstruction) error {
	return nil
}

func newTestRouter(repo *apiRepoStub, now time.Time) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewService(repo, apiDispatcherStub{}, stubClock{now: now}, logger)
	return NewRouter(NewHandler(service, logger), "test-secret")
}

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func TestReminderTask_RejectsMalformedPayload(t *testing.T) {
	repo := &apiRepoStub{}
	router := newTestRouter(repo, time.Now())

	body := `{"subscriptionId": "` + uuid.New().String() + `", "reminderLabel": "2-day-pre-renewal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/subscription/reminder-task", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed payload, got %d", rec.Code)
	}
	if len(repo.audits) != 0 {
		t.Fatal("expected no audit entry for a malformed payload")
	}
}

func TestReminderTask_ReportsSkippedDelivery(t *testing.T) {
	ownerID := uuid.New()
	renewal := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	sub := &domain.Subscription{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		OwnerEmail:  "jo@example.com",
		OwnerName:   "Jo",
		Timezone:    "UTC",
		RenewalDate: renewal,
		Status:      domain.StatusCancelled,
	}
	repo := &apiRepoStub{sub: sub}
	router := newTestRouter(repo, renewal.AddDate(0, 0, -2))

	body := `{"subscriptionId": "` + sub.ID.String() + `",
		"reminderLabel": "2-day-pre-renewal",
		"userEmail": "jo@example.com",
		"userName": "Jo",
		"reminderType": "pre-renewal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows/subscription/reminder-task", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a skipped delivery, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"delivered":false`) {
		t.Fatalf("expected delivered=false in response, got %s", rec.Body.String())
	}
	if len(repo.audits) != 0 {
		t.Fatal("expected no audit entry when delivery is skipped")
	}
}

func TestProtectedRoutes_RequireAuthorization(t *testing.T) {
	router := newTestRouter(&apiRepoStub{}, time.Now())

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/subscriptions"},
		{http.MethodGet, "/api/v1/subscriptions/" + uuid.New().String()},
		{http.MethodPost, "/api/v1/subscriptions/" + uuid.New().String() + "/renew"},
		{http.MethodPost, "/api/v1/subscriptions/" + uuid.New().String() + "/cancel"},
		{http.MethodGet, "/api/v1/users/" + uuid.New().String() + "/subscriptions"},
	}

	for _, route := range routes {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without a token, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestHealthEndpoint_IsPublic(t *testing.T) {
	router := newTestRouter(&apiRepoStub{}, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health check, got %d", rec.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrInvalidFrequency, http.StatusBadRequest},
		{domain.ErrStartDateInPast, http.StatusBadRequest},
		{domain.ErrInvalidStartDateFormat, http.StatusBadRequest},
		{domain.ErrMalformedReminderPayload, http.StatusBadRequest},
		{domain.ErrNotAuthorized, http.StatusForbidden},
		{domain.ErrSubscriptionNotFound, http.StatusNotFound},
		{domain.ErrPersistenceConflict, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestSubscriptionView_FormatsDatesInLocalTimezone(t *testing.T) {
	loc, err := schedule.Location("America/New_York")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Midnight June 10 in New York is 04:00 UTC.
	renewal := time.Date(2025, 6, 10, 0, 0, 0, 0, loc).UTC()

	view := newSubscriptionView(&domain.Subscription{
		Timezone:    "America/New_York",
		StartDate:   renewal.AddDate(0, -1, 0),
		RenewalDate: renewal,
	})

	if view.RenewalDate != "2025-06-10" {
		t.Errorf("expected renewal date 2025-06-10, got %s", view.RenewalDate)
	}
	if view.StartDate != "2025-05-10" {
		t.Errorf("expected start date 2025-05-10, got %s", view.StartDate)
	}
}
