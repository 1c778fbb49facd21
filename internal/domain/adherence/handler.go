package adherence

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
	api.GET("/patients/:patient_id/adherence", h.GetMetrics)
	api.POST("/patients/:patient_id/adherence/batch", h.BatchMetrics)
	api.GET("/patients/:patient_id/adherence/monitoring", h.Monitoring)
}

func parseRange(c echo.Context) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", c.QueryParam("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (h *Handler) GetMetrics(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	key := c.QueryParam("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}
	from, to, err := parseRange(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required, expected YYYY-MM-DD")
	}
	m, err := h.svc.Metrics(c.Request().Context(), patientID, key, from, to)
	if errors.Is(err, ErrUnknownKey) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

type batchRequest struct {
	Keys []string `json:"keys"`
}

func (h *Handler) BatchMetrics(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Keys) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "keys are required")
	}
	from, to, err := parseRange(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required, expected YYYY-MM-DD")
	}
	results, err := h.svc.BatchMetrics(c.Request().Context(), patientID, req.Keys, from, to)
	if errors.Is(err, ErrUnknownKey) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}

func (h *Handler) Monitoring(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	from, to, err := parseRange(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required, expected YYYY-MM-DD")
	}
	breakdown, err := h.svc.Monitoring(c.Request().Context(), patientID, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, breakdown)
}
