package reservation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"townbook/model"
	ressvc "townbook/service/reservation"
	"townbook/util/schedule"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   ressvc.Service
	V     *validator.Validate
	Log   *slog.Logger
	Debug bool
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

func (h *Controller) internal(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err, "req_id", c.Response().Header().Get(echo.HeaderXRequestID))
	msg := "internal error"
	if h.Debug {
		msg = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": msg})
}

func (h *Controller) mapErr(c echo.Context, op string, err error) error {
	switch ressvc.Code(err) {
	case ressvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "reservation not found"})
	case ressvc.ErrInvalidState:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid reservation state"})
	case ressvc.ErrConflict:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "item is not available for the requested time slot"})
	case ressvc.ErrOutOfStock:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "book is currently out of stock"})
	case ressvc.ErrBadSlot:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid time slot"})
	default:
		return h.internal(c, op, err)
	}
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func parseDate(s string) (time.Time, error) { return time.Parse("2006-01-02", s) }

// GET /api/reservations
func (h *Controller) ListMine(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return h.internal(c, "reservation list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/reservations/:id
func (h *Controller) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)
	res, err := h.Svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return h.mapErr(c, "reservation get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": res})
}

// POST /api/reservations/reserve
func (h *Controller) Create(c echo.Context) error {
	var req CreateReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	in, err := h.createInput(uid, model.ItemType(req.Type), req.ItemID, req.StartDate, req.EndDate, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid dates"})
	}
	res, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.mapErr(c, "reservation create", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": res})
}

// ReserveBook handles POST /api/books/reserve/:id.
func (h *Controller) ReserveBook(c echo.Context) error {
	return h.reserveItem(c, model.ItemBook)
}

// ReserveRoom handles POST /api/rooms/reserve/:id.
func (h *Controller) ReserveRoom(c echo.Context) error {
	return h.reserveItem(c, model.ItemRoom)
}

func (h *Controller) reserveItem(c echo.Context, typ model.ItemType) error {
	itemID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReserveItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	in, err := h.createInput(uid, typ, itemID, req.StartDate, req.EndDate, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid dates"})
	}
	res, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return h.mapErr(c, "item reserve", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": res})
}

func (h *Controller) createInput(uid int64, typ model.ItemType, itemID int64, startDate, endDate string, startTime, endTime, notes *string) (ressvc.CreateInput, error) {
	sd, err := parseDate(startDate)
	if err != nil {
		return ressvc.CreateInput{}, err
	}
	ed, err := parseDate(endDate)
	if err != nil {
		return ressvc.CreateInput{}, err
	}
	return ressvc.CreateInput{
		UserID:    uid,
		Type:      typ,
		ItemID:    itemID,
		StartDate: sd,
		EndDate:   ed,
		StartTime: startTime,
		EndTime:   endTime,
		Notes:     notes,
	}, nil
}

// GET /api/rooms/:id/availability
func (h *Controller) CheckAvailability(c echo.Context) error {
	roomID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	sd, err1 := parseDate(c.QueryParam("start_date"))
	ed, err2 := parseDate(c.QueryParam("end_date"))
	st := c.QueryParam("start_time")
	et := c.QueryParam("end_time")
	if err1 != nil || err2 != nil || !schedule.ValidClock(st) || !schedule.ValidClock(et) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid slot parameters"})
	}

	available, err := h.Svc.CheckAvailability(c.Request().Context(), roomID, schedule.Slot{
		StartDate: sd,
		EndDate:   ed,
		StartTime: st,
		EndTime:   et,
	})
	if err != nil {
		return h.mapErr(c, "availability check", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}

// PUT /api/reservations/:id/approve  (librarian)
func (h *Controller) Approve(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	return h.transition(c, "reservation approve", func(ctx context.Context, id int64) (*model.Reservation, error) {
		return h.Svc.Approve(ctx, id, uid)
	})
}

// PUT /api/reservations/:id/decline  (librarian)
func (h *Controller) Decline(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	return h.transition(c, "reservation decline", func(ctx context.Context, id int64) (*model.Reservation, error) {
		return h.Svc.Decline(ctx, id, uid)
	})
}

// PUT /api/reservations/:id/checkout  (librarian)
func (h *Controller) Checkout(c echo.Context) error {
	return h.transition(c, "reservation checkout", h.Svc.Checkout)
}

// PUT /api/reservations/:id/return  (librarian)
func (h *Controller) Return(c echo.Context) error {
	return h.transition(c, "reservation return", h.Svc.Return)
}

// PUT /api/rooms/check-in/:id  (librarian)
func (h *Controller) CheckIn(c echo.Context) error {
	return h.transition(c, "room check-in", h.Svc.CheckIn)
}

// PUT /api/rooms/check-out/:id  (librarian)
func (h *Controller) CheckOutRoom(c echo.Context) error {
	return h.transition(c, "room check-out", h.Svc.CheckOutRoom)
}

func (h *Controller) transition(c echo.Context, op string, fn func(ctx context.Context, id int64) (*model.Reservation, error)) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	res, err := fn(c.Request().Context(), id)
	if err != nil {
		return h.mapErr(c, op, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": res})
}

// GET /api/books/reservations/:id  (librarian)
func (h *Controller) ListForBook(c echo.Context) error {
	return h.listForItem(c, model.ItemBook)
}

// ListForRoom handles GET /api/rooms/reservations/:id  (librarian).
func (h *Controller) ListForRoom(c echo.Context) error {
	return h.listForItem(c, model.ItemRoom)
}

func (h *Controller) listForItem(c echo.Context, typ model.ItemType) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	itemID, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	rows, err := h.Svc.ListForItem(c.Request().Context(), typ, itemID)
	if err != nil {
		return h.internal(c, "item reservations", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// DELETE /api/reservations/:id
func (h *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return h.mapErr(c, "reservation delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation removed successfully"})
}
