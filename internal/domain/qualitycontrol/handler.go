package qualitycontrol

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/auth"
	"github.com/labdash/labdash/pkg/isodate"
	"github.com/labdash/labdash/pkg/pagination"
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
	read.GET("/qc-tests", h.ListQCTests)
	read.GET("/qc-tests/summary", h.GetSummary)
	read.GET("/qc-tests/:id", h.GetQCTest)
	read.GET("/qc-tests/:id/check", h.CheckQCTest)

	write := api.Group("", auth.RequireRole(auth.WriteRoles...))
	write.POST("/qc-tests", h.CreateQCTest)
	write.DELETE("/qc-tests/:id", h.DeleteQCTest)
}

func (h *Handler) CreateQCTest(c echo.Context) error {
	var q QCTest
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateQCTest(c.Request().Context(), &q); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQCTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	q, err := h.svc.GetQCTest(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) CheckQCTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	check, err := h.svc.CheckQCTest(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, check)
}

func (h *Handler) DeleteQCTest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteQCTest(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListQCTests(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListQCTests(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	if items == nil {
		items = []*QCTest{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c.Path()))
}

func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context(), h.now().UTC())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{
		Status:  c.QueryParam("status"),
		Analyte: c.QueryParam("analyte"),
	}
	if v := c.QueryParam("equipment_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid equipment_id")
		}
		f.EquipmentID = &id
	}
	for param, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := c.QueryParam(param)
		if v == "" {
			continue
		}
		t, err := isodate.Parse(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
		}
		*dst = &t
	}
	return f, nil
}
