package task

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/tasks/generate", h.Generate)
	api.POST("/tasks", h.CreateAdHoc)
	api.POST("/tasks/:id/complete", h.Complete)
	api.GET("/patients/:patient_id/tasks", h.ListDue)
	api.GET("/patients/:patient_id/tasks/pending", h.ListPending)
}

func parseDate(c echo.Context) (time.Time, error) {
	d := c.QueryParam("date")
	if d == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", d)
}

// Generate is the batch entry point for task materialization, invoked by
// cron or manually for a backfill date.
func (h *Handler) Generate(c echo.Context) error {
	date, err := parseDate(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	created, err := h.svc.GenerateForDate(c.Request().Context(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"created": created})
}

type adHocRequest struct {
	PatientID  uuid.UUID `json:"patient_id"`
	Date       string    `json:"date"`
	MetricCode string    `json:"metric_code"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail"`
}

func (h *Handler) CreateAdHoc(c echo.Context) error {
	var req adHocRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and title are required")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	t, created, err := h.svc.CreateAdHoc(c.Request().Context(), req.PatientID, date, req.MetricCode, req.Title, req.Detail)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !created {
		return c.NoContent(http.StatusConflict)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Complete(c.Request().Context(), id, time.Now())
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "task cannot be completed")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) ListDue(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	date, err := parseDate(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	tasks, err := h.svc.ListDue(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *Handler) ListPending(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	date, err := parseDate(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
	}
	tasks, err := h.svc.ListPendingAsOf(c.Request().Context(), patientID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}
