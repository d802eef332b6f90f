package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		userRoles []string
		required  []string
		allowed   bool
	}{
		{"matching role", []string{RoleTechnician}, WriteRoles, true},
		{"admin bypass", []string{RoleAdmin}, []string{RoleLabManager}, true},
		{"viewer cannot write", []string{RoleViewer}, WriteRoles, false},
		{"viewer can read", []string{RoleViewer}, ReadRoles, true},
		{"no roles", nil, ReadRoles, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithUser(context.Background(), "u1", tt.userRoles...))
			c := e.NewContext(req, httptest.NewRecorder())

			called := false
			err := RequireRole(tt.required...)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if tt.allowed {
				if err != nil || !called {
					t.Errorf("expected access, got err=%v called=%v", err, called)
				}
				return
			}
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %v", err)
			}
			if called {
				t.Error("handler should not run")
			}
		})
	}
}
