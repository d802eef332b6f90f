package dashboard

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/auth"
	"github.com/labdash/labdash/internal/platform/export"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.ReadRoles...))
	read.GET("/dashboard", h.GetDashboard)
	read.GET("/dashboard/export", h.ExportDashboard)

	manage := api.Group("", auth.RequireRole(auth.RoleLabManager))
	manage.DELETE("/dashboard/cache", h.InvalidateCache)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	refresh := false
	if v := c.QueryParam("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "refresh must be a boolean")
		}
		refresh = b
	}
	d, err := h.svc.Build(c.Request().Context(), h.now().UTC(), refresh)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ExportDashboard(c echo.Context) error {
	now := h.now().UTC()
	data, err := h.svc.Export(c.Request().Context(), now)
	if err != nil {
		return apperr.HTTP(err)
	}
	name := fmt.Sprintf("lab-dashboard-%s.xlsx", now.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, export.ContentTypeXLSX, data)
}

func (h *Handler) InvalidateCache(c echo.Context) error {
	if err := h.svc.Invalidate(c.Request().Context()); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
