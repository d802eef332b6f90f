package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestExtractTenantID_FromHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "lab_north")
	c := e.NewContext(req, httptest.NewRecorder())

	if tid := extractTenantID(c, "default"); tid != "lab_north" {
		t.Errorf("expected lab_north, got %s", tid)
	}
}

func TestExtractTenantID_FromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?tenant_id=lab_south", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	if tid := extractTenantID(c, "default"); tid != "lab_south" {
		t.Errorf("expected lab_south, got %s", tid)
	}
}

func TestExtractTenantID_JWTWins(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?tenant_id=query", nil)
	req.Header.Set("X-Tenant-ID", "header")
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("jwt_tenant_id", "jwt_tenant")

	if tid := extractTenantID(c, "default"); tid != "jwt_tenant" {
		t.Errorf("expected jwt_tenant, got %s", tid)
	}
}

func TestExtractTenantID_Default(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if tid := extractTenantID(c, "default"); tid != "default" {
		t.Errorf("expected default, got %s", tid)
	}
}

func TestValidTenantID(t *testing.T) {
	for _, id := range []string{"default", "lab_1", "ABC"} {
		if !ValidTenantID(id) {
			t.Errorf("%q should be valid", id)
		}
	}
	for _, id := range []string{"", "a-b", "x;DROP TABLE", "a b"} {
		if ValidTenantID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}

func TestSchemaName(t *testing.T) {
	if got := SchemaName("north"); got != "tenant_north" {
		t.Errorf("got %s", got)
	}
}

func TestStaticTenant(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var seen string
	h := StaticTenant("lab_a")(func(c echo.Context) error {
		seen = TenantFromContext(c.Request().Context())
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "lab_a" {
		t.Errorf("expected lab_a, got %q", seen)
	}
	if c.Get("tenant_id") != "lab_a" {
		t.Errorf("expected echo context tenant_id lab_a")
	}
}

func TestResolveTenant(t *testing.T) {
	e := echo.New()
	var seen string
	h := ResolveTenant("default")(func(c echo.Context) error {
		seen = TenantFromContext(c.Request().Context())
		if ConnFromContext(c.Request().Context()) != nil {
			t.Error("no connection should be pinned")
		}
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "lab_north")
	if err := h(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "lab_north" {
		t.Errorf("expected lab_north, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant-ID", "x;DROP TABLE")
	err := h(e.NewContext(req, httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid tenant, got %v", err)
	}
}

func TestContextAccessors_Empty(t *testing.T) {
	ctx := context.Background()
	if ConnFromContext(ctx) != nil {
		t.Error("expected nil conn")
	}
	if TenantFromContext(ctx) != "" {
		t.Error("expected empty tenant")
	}
	if TxFromContext(ctx) != nil {
		t.Error("expected nil tx")
	}
}

func TestCreateTenantSchema_InvalidID(t *testing.T) {
	if err := CreateTenantSchema(context.Background(), nil, "bad-id", nil); err == nil {
		t.Error("expected error for invalid tenant id")
	}
}

func TestAcquireTenantConn_RejectsInvalidTenant(t *testing.T) {
	ctx := context.Background()
	got, release, err := AcquireTenantConn(ctx, nil, "bad;tenant")
	defer release()
	if err == nil {
		t.Fatal("expected error for invalid tenant")
	}
	if got != ctx {
		t.Error("expected context to be returned unchanged")
	}
}

func TestSharedScope(t *testing.T) {
	ctx := context.WithValue(context.Background(), TenantIDKey, "acme")
	got, release, err := SharedScope(ctx)
	defer release()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if TenantFromContext(got) != "acme" {
		t.Errorf("expected tenant to carry over, got %q", TenantFromContext(got))
	}
}
