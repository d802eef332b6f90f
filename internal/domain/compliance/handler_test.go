package compliance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	h.now = func() time.Time { return testNow }
	return h, echo.New()
}

func TestCreateEntry_Handler(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"requirement":"CAP checklist","category":"accreditation","status":"compliant"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.CreateEntry(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestGetEntry_Handler(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	err := h.GetEntry(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestListEntries_Handler(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.CreateEntry(ctx, &Entry{Requirement: "a", Status: StatusCompliant})
	h.svc.CreateEntry(ctx, &Entry{Requirement: "b", Status: StatusPending})

	rec := httptest.NewRecorder()
	if err := h.ListEntries(e.NewContext(httptest.NewRequest(http.MethodGet, "/?status=compliant", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("expected 1 compliant entry, got %d", resp.Total)
	}
}

func TestGetSummary_Handler(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateEntry(context.Background(), &Entry{Requirement: "a", Status: StatusCompliant})

	rec := httptest.NewRecorder()
	if err := h.GetSummary(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum Summary
	json.Unmarshal(rec.Body.Bytes(), &sum)
	if sum.ComplianceRate != 100 {
		t.Errorf("expected 100, got %d", sum.ComplianceRate)
	}
}
