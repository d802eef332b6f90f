package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdash/labdash/internal/platform/apperr"
)

type mockEntryRepo struct {
	store map[uuid.UUID]*Entry
	err   error
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{store: make(map[uuid.UUID]*Entry)}
}

func (m *mockEntryRepo) Create(_ context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.store[e.ID] = e
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *mockEntryRepo) Search(_ context.Context, status, category string, limit, offset int) ([]*Entry, int, error) {
	var r []*Entry
	for _, e := range m.store {
		if status != "" && e.Status != status {
			continue
		}
		if category != "" && e.category() != category {
			continue
		}
		r = append(r, e)
	}
	return r, len(r), nil
}

func (m *mockEntryRepo) ListAll(_ context.Context) ([]*Entry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var r []*Entry
	for _, e := range m.store {
		r = append(r, e)
	}
	return r, nil
}

func newTestService() (*Service, *mockEntryRepo) {
	repo := newMockEntryRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func strPtr(s string) *string { return &s }

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestCreateEntry(t *testing.T) {
	svc, _ := newTestService()
	e := &Entry{Requirement: "CLIA proficiency testing"}
	if err := svc.CreateEntry(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Status != StatusPending {
		t.Errorf("expected pending default, got %s", e.Status)
	}

	err := svc.CreateEntry(context.Background(), &Entry{Requirement: "x", Status: "maybe"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "status" {
		t.Errorf("expected status validation error, got %v", err)
	}
	err = svc.CreateEntry(context.Background(), &Entry{})
	if !errors.As(err, &ve) || ve.Field != "requirement" {
		t.Errorf("expected requirement validation error, got %v", err)
	}
}

func TestCreateEntry_NotifiesChange(t *testing.T) {
	svc, _ := newTestService()
	changes := 0
	svc.OnChange(func(context.Context) { changes++ })

	svc.CreateEntry(context.Background(), &Entry{Requirement: "CAP inspection"})
	svc.CreateEntry(context.Background(), &Entry{})
	if changes != 1 {
		t.Errorf("expected 1 change notification, got %d", changes)
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	overdue := testNow.Add(-48 * time.Hour)
	svc.CreateEntry(ctx, &Entry{Requirement: "a", Category: strPtr("safety"), Status: StatusCompliant})
	svc.CreateEntry(ctx, &Entry{Requirement: "b", Category: strPtr("safety"), Status: StatusNonCompliant, DueDate: &overdue})
	svc.CreateEntry(ctx, &Entry{Requirement: "c", Category: strPtr("safety"), Status: StatusCompliant, DueDate: &overdue})
	svc.CreateEntry(ctx, &Entry{Requirement: "d", Status: StatusInReview})

	sum, err := svc.Summary(ctx, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Total != 4 || sum.Compliant != 2 || sum.ComplianceRate != 50 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.PastDue != 1 {
		t.Errorf("expected 1 past due, got %d", sum.PastDue)
	}
	if len(sum.ByCategory) != 2 {
		t.Fatalf("expected 2 categories, got %+v", sum.ByCategory)
	}
	safety := sum.ByCategory[0]
	if safety.Category != "safety" || safety.Total != 3 || safety.Rate != 67 {
		t.Errorf("unexpected safety rate %+v", safety)
	}
	if sum.ByCategory[1].Category != uncategorized || sum.ByCategory[1].Rate != 0 {
		t.Errorf("unexpected uncategorized rate %+v", sum.ByCategory[1])
	}
}

func TestSummary_Empty(t *testing.T) {
	svc, _ := newTestService()
	sum, err := svc.Summary(context.Background(), testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.ComplianceRate != 0 || len(sum.ByCategory) != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
}

func TestSummary_RepoError(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("db down")
	if _, err := svc.Summary(context.Background(), testNow); !errors.Is(err, repo.err) {
		t.Errorf("expected wrapped repo error, got %v", err)
	}
}
