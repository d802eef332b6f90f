package equipment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labdash/labdash/internal/platform/analytics"
	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/auth"
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
	read.GET("/equipment", h.ListEquipment)
	read.GET("/equipment/summary", h.GetSummary)
	read.GET("/equipment/maintenance", h.GetSchedule)
	read.GET("/equipment/:id", h.GetEquipment)

	write := api.Group("", auth.RequireRole(auth.WriteRoles...))
	write.POST("/equipment", h.CreateEquipment)
	write.PATCH("/equipment/:id/status", h.UpdateStatus)

	manage := api.Group("", auth.RequireRole(auth.RoleLabManager))
	manage.DELETE("/equipment/:id", h.DeleteEquipment)
}

// view adds the derived maintenance fields to a stored record.
type view struct {
	*Equipment
	Maintenance analytics.MaintenanceStatus `json:"maintenance"`
	Overdue     bool                        `json:"overdue"`
	AgeYears    int                         `json:"age_years"`
}

func (h *Handler) view(e *Equipment, now time.Time) view {
	return view{
		Equipment:   e,
		Maintenance: e.MaintenanceStatus(now, h.svc.DueSoonWindow()),
		Overdue:     e.Overdue(now),
		AgeYears:    e.AgeYears(now),
	}
}

func (h *Handler) CreateEquipment(c echo.Context) error {
	var e Equipment
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateEquipment(c.Request().Context(), &e); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, h.view(&e, h.now().UTC()))
}

func (h *Handler) GetEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	e, err := h.svc.GetEquipment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, h.view(e, h.now().UTC()))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, h.view(e, h.now().UTC()))
}

func (h *Handler) DeleteEquipment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteEquipment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListEquipment(c echo.Context) error {
	f := Filter{
		Status:   c.QueryParam("status"),
		Type:     c.QueryParam("type"),
		Location: c.QueryParam("location"),
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListEquipment(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	now := h.now().UTC()
	views := make([]view, 0, len(items))
	for _, e := range items {
		views = append(views, h.view(e, now))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset).WithNext(c.Path()))
}

func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context(), h.now().UTC())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}

// GetSchedule lists the maintenance schedule; ?maintenance=overdue narrows it
// to one classification.
func (h *Handler) GetSchedule(c echo.Context) error {
	want := analytics.MaintenanceStatus(c.QueryParam("maintenance"))
	if want != "" && !knownMaintenance(want) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid maintenance filter: "+string(want))
	}
	items, err := h.svc.Schedule(c.Request().Context(), h.now().UTC())
	if err != nil {
		return apperr.HTTP(err)
	}
	if want != "" {
		filtered := items[:0]
		for _, it := range items {
			if it.Maintenance == want {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func knownMaintenance(s analytics.MaintenanceStatus) bool {
	for _, ms := range analytics.MaintenanceStatuses {
		if ms == s {
			return true
		}
	}
	return false
}
