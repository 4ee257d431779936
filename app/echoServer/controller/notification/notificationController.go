package notification

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	notificationsvc "townbook/service/notification"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   notificationsvc.Service
	Log   *slog.Logger
	Debug bool
}

// GET /api/notifications
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return h.internal(c, "notification list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/notifications/unread-count
func (h *Controller) UnreadCount(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	n, err := h.Svc.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return h.internal(c, "notification unread count", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// GET /api/notifications/:id
func (h *Controller) Get(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	n, err := h.Svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		if errors.Is(err, notificationsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
		}
		return h.internal(c, "notification get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// PUT /api/notifications/:id/read
func (h *Controller) MarkRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	n, err := h.Svc.MarkRead(c.Request().Context(), uid, id)
	if err != nil {
		if errors.Is(err, notificationsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
		}
		return h.internal(c, "notification mark read", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": n})
}

// PUT /api/notifications/read-all
func (h *Controller) MarkAllRead(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	n, err := h.Svc.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		return h.internal(c, "notification mark all read", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notifications marked as read", "updated": n})
}

// DELETE /api/notifications/:id
func (h *Controller) Delete(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), uid, id); err != nil {
		if errors.Is(err, notificationsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "notification not found"})
		}
		return h.internal(c, "notification delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "notification removed successfully"})
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Controller) internal(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
	msg := "internal error"
	if h.Debug {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": msg})
}
