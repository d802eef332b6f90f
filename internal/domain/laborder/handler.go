package laborder

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/labdash/labdash/internal/platform/apperr"
	"github.com/labdash/labdash/internal/platform/auth"
	"github.com/labdash/labdash/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.ReadRoles...))
	read.GET("/lab-orders", h.ListLabOrders)
	read.GET("/lab-orders/summary", h.GetSummary)
	read.GET("/lab-orders/:id", h.GetLabOrder)

	write := api.Group("", auth.RequireRole(auth.WriteRoles...))
	write.POST("/lab-orders", h.CreateLabOrder)
	write.PATCH("/lab-orders/:id/status", h.SetStatus)
}

// orderView carries the display label next to the stored stage.
type orderView struct {
	*LabOrder
	StageLabel string `json:"stage_label"`
}

func newOrderView(o *LabOrder) orderView {
	return orderView{LabOrder: o, StageLabel: StageLabel(o.Status)}
}

func (h *Handler) CreateLabOrder(c echo.Context) error {
	var o LabOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLabOrder(c.Request().Context(), &o); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, newOrderView(&o))
}

func (h *Handler) GetLabOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.GetLabOrder(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newOrderView(o))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, newOrderView(o))
}

func (h *Handler) ListLabOrders(c echo.Context) error {
	f := Filter{
		Status:     c.QueryParam("status"),
		Priority:   c.QueryParam("priority"),
		PatientRef: c.QueryParam("patient_ref"),
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLabOrders(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	views := make([]orderView, 0, len(items))
	for _, o := range items {
		views = append(views, newOrderView(o))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset).WithNext(c.Path()))
}

func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, sum)
}
