package analytics

import (
	"log/slog"
	"net/http"
	"time"

	"townbook/model"
	analyticssvc "townbook/service/analytics"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   analyticssvc.Service
	Log   *slog.Logger
	Debug bool
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

// GET /api/analytics/stats  (librarian)
func (h *Controller) Stats(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	ov, err := h.Svc.Overview(c.Request().Context())
	if err != nil {
		return h.internal(c, "analytics stats", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": ov})
}

// GET /api/analytics/trends?start_date=&end_date=  (librarian)
func (h *Controller) Trends(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
	}
	rows, err := h.Svc.Trends(c.Request().Context(), from, to)
	if err != nil {
		return h.internal(c, "analytics trends", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /api/analytics/resource-usage?start_date=&end_date=  (librarian)
func (h *Controller) ResourceUsage(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
	}
	books, rooms, err := h.Svc.ResourceUsage(c.Request().Context(), from, to)
	if err != nil {
		return h.internal(c, "analytics resource usage", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"books": books, "rooms": rooms}})
}

// GET /api/analytics/user-activity?start_date=&end_date=  (librarian)
func (h *Controller) UserActivity(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	from, to, ok := dateRange(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid date range"})
	}
	rows, err := h.Svc.UserActivity(c.Request().Context(), from, to)
	if err != nil {
		return h.internal(c, "analytics user activity", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// dateRange reads optional start_date/end_date (YYYY-MM-DD) query params.
// Zero times mean "use the default window" downstream.
func dateRange(c echo.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	if s := c.QueryParam("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if s := c.QueryParam("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return from, to, false
		}
		// Inclusive end of day.
		to = t.Add(24*time.Hour - time.Second)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return from, to, false
	}
	return from, to, true
}

func (h *Controller) internal(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
	msg := "internal error"
	if h.Debug {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": msg})
}
