package equipment

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

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestCreateEquipment_Handler(t *testing.T) {
	h, e := newTestHandler()
	body := `{"name":"Sysmex XN","status":"operational","next_maintenance":"2024-06-14T00:00:00Z","purchase_date":"2020-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateEquipment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var got map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got["name"] != "Sysmex XN" {
		t.Errorf("expected embedded fields, got %v", got)
	}
	if got["maintenance"] != "overdue" || got["overdue"] != true {
		t.Errorf("expected overdue maintenance, got %v / %v", got["maintenance"], got["overdue"])
	}
	if got["age_years"] != float64(4) {
		t.Errorf("expected age 4, got %v", got["age_years"])
	}
}

func TestUpdateStatus_Handler(t *testing.T) {
	h, e := newTestHandler()
	eq := &Equipment{Name: "Analyzer"}
	h.svc.CreateEquipment(context.Background(), eq)

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"out_of_service"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(eq.ID.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eq.Status != StatusOutOfService {
		t.Errorf("expected out_of_service, got %s", eq.Status)
	}

	req = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"exploded"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(eq.ID.String())
	if code := httpCode(t, h.UpdateStatus(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestGetEquipment_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	if code := httpCode(t, h.GetEquipment(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestGetSchedule_Handler(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.CreateEquipment(ctx, &Equipment{Name: "a", NextMaintenance: days(-2)})
	h.svc.CreateEquipment(ctx, &Equipment{Name: "b", NextMaintenance: days(20)})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?maintenance=overdue", nil), rec)
	if err := h.GetSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []ScheduleItem `json:"data"`
		Total int            `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Data[0].Name != "a" {
		t.Errorf("unexpected schedule %+v", resp)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?maintenance=whenever", nil), httptest.NewRecorder())
	if code := httpCode(t, h.GetSchedule(c)); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestListEquipment_Handler(t *testing.T) {
	h, e := newTestHandler()
	ctx := context.Background()
	h.svc.CreateEquipment(ctx, &Equipment{Name: "a"})
	h.svc.CreateEquipment(ctx, &Equipment{Name: "b", Status: StatusRetired})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?status=retired", nil), rec)
	if err := h.ListEquipment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("expected 1 retired item, got %d", resp.Total)
	}
}

func TestGetSummary_Handler(t *testing.T) {
	h, e := newTestHandler()
	h.svc.CreateEquipment(context.Background(), &Equipment{Name: "a"})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := h.GetSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum Summary
	json.Unmarshal(rec.Body.Bytes(), &sum)
	if sum.Total != 1 || sum.OperationalRate != 100 {
		t.Errorf("unexpected summary %+v", sum)
	}
}
