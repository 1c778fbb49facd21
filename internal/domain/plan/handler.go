package plan

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/planengine/internal/domain/catalog"
	"github.com/clinicops/planengine/internal/domain/cycle"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cycles/:cycle_id/items", h.ListItems)
	api.POST("/cycles/:cycle_id/items/toggle", h.ToggleItemStatus)
	api.POST("/items/:id/days", h.ToggleScheduleDay)
	api.PATCH("/items/:id", h.UpdateField)
	api.POST("/items/:id/interactions", h.ToggleInteractionFlag)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, cycle.ErrNotFound), errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, cycle.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "cycle is not editable")
	case errors.Is(err, catalog.ErrInactive):
		return echo.NewHTTPError(http.StatusConflict, "template is inactive")
	case errors.Is(err, ErrDayOutOfRange):
		return echo.NewHTTPError(http.StatusBadRequest, "day outside cycle range")
	case errors.Is(err, ErrUnsupportedField):
		return echo.NewHTTPError(http.StatusBadRequest, "field not editable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) ListItems(c echo.Context) error {
	cycleID, err := uuid.Parse(c.Param("cycle_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cycle_id")
	}
	items, err := h.svc.ListByCycle(c.Request().Context(), cycleID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, items)
}

type toggleItemRequest struct {
	Category   catalog.Category `json:"category"`
	TemplateID uuid.UUID        `json:"template_id"`
	Enable     bool             `json:"enable"`
}

func (h *Handler) ToggleItemStatus(c echo.Context) error {
	cycleID, err := uuid.Parse(c.Param("cycle_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cycle_id")
	}
	var req toggleItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.ToggleItemStatus(c.Request().Context(), cycleID, req.Category, req.TemplateID, req.Enable)
	if err != nil {
		return mapError(err)
	}
	if item == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, item)
}

type toggleDayRequest struct {
	Day     int32 `json:"day"`
	Checked bool  `json:"checked"`
}

func (h *Handler) ToggleScheduleDay(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req toggleDayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.ToggleScheduleDay(c.Request().Context(), id, req.Day, req.Checked)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

type updateFieldRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (h *Handler) UpdateField(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateFieldRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdateTextField(c.Request().Context(), id, req.Field, req.Value)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}

type toggleFlagRequest struct {
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

func (h *Handler) ToggleInteractionFlag(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req toggleFlagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	item, err := h.svc.ToggleInteractionFlag(c.Request().Context(), id, req.Code, req.Enabled)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, item)
}
