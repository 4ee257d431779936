package room

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"townbook/model"
	roomsvc "townbook/service/room"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type UpsertRoomReq struct {
	Name        string                `json:"name" validate:"required"`
	Capacity    int64                 `json:"capacity" validate:"required,gte=1"`
	Description *string               `json:"description,omitempty"`
	Location    string                `json:"location" validate:"required"`
	Amenities   []string              `json:"amenities" validate:"omitempty,dive,oneof=WiFi Projector Whiteboard Printers Coffee Other"`
	Schedule    []model.ScheduleEntry `json:"schedule" validate:"omitempty,dive"`
}

type UpdateRoomReq struct {
	Name        string                `json:"name"`
	Capacity    int64                 `json:"capacity" validate:"omitempty,gte=1"`
	Description *string               `json:"description,omitempty"`
	Location    string                `json:"location"`
	Amenities   []string              `json:"amenities" validate:"omitempty,dive,oneof=WiFi Projector Whiteboard Printers Coffee Other"`
	Schedule    []model.ScheduleEntry `json:"schedule" validate:"omitempty,dive"`
}

type Controller struct {
	Svc   roomsvc.Service
	V     *validator.Validate
	Log   *slog.Logger
	Debug bool
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

// POST /api/rooms  (librarian)
func (h *Controller) Create(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req UpsertRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	rm, err := h.Svc.Create(c.Request().Context(), roomsvc.CreateInput{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Description: req.Description,
		Location:    req.Location,
		Amenities:   req.Amenities,
		Schedule:    req.Schedule,
	}, uid)
	if err != nil {
		if errors.Is(err, roomsvc.ErrBadInput) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		}
		return h.internal(c, "room create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": rm})
}

// PUT /api/rooms/:id  (librarian)
func (h *Controller) Update(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	rm, err := h.Svc.Update(c.Request().Context(), id, roomsvc.CreateInput{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Description: req.Description,
		Location:    req.Location,
		Amenities:   req.Amenities,
		Schedule:    req.Schedule,
	})
	if err != nil {
		if errors.Is(err, roomsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		return h.internal(c, "room update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rm})
}

// DELETE /api/rooms/:id  (librarian)
func (h *Controller) Delete(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, roomsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		return h.internal(c, "room delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room removed successfully"})
}

// GET /api/rooms
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.internal(c, "room list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/rooms/search?q=
func (h *Controller) Search(c echo.Context) error {
	rows, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.internal(c, "room search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/rooms/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rm, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, roomsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		return h.internal(c, "room detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rm})
}

// GET /api/rooms/:id/schedule
func (h *Controller) Schedule(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	entries, err := h.Svc.Schedule(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, roomsvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "room not found"})
		}
		return h.internal(c, "room schedule", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": entries})
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
