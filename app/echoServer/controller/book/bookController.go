package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"townbook/model"
	booksvc "townbook/service/book"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   booksvc.Service
	V     *validator.Validate
	Log   *slog.Logger
	Debug bool
}

func isLibrarian(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == string(model.RoleLibrarian)
}

// POST /api/books  (librarian)
func (h *Controller) Create(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	var req UpsertBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.Create(c.Request().Context(), booksvc.CreateInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
		Genre:       req.Genre,
		CoverImage:  req.CoverImage,
		TotalCopies: req.TotalCopies,
		Location:    req.Location,
	}, uid)
	if err != nil {
		switch {
		case errors.Is(err, booksvc.ErrISBNTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "isbn already registered"})
		case errors.Is(err, booksvc.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		default:
			return h.internal(c, "book create", err)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": b})
}

// PUT /api/books/:id  (librarian)
func (h *Controller) Update(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req UpdateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}

	b, err := h.Svc.Update(c.Request().Context(), id, booksvc.CreateInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Description: req.Description,
		Genre:       req.Genre,
		CoverImage:  req.CoverImage,
		Location:    req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, booksvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case errors.Is(err, booksvc.ErrISBNTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "isbn already registered"})
		default:
			return h.internal(c, "book update", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// DELETE /api/books/:id  (librarian)
func (h *Controller) Delete(c echo.Context) error {
	if !isLibrarian(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, booksvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		return h.internal(c, "book delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book removed successfully"})
}

// GET /api/books
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return h.internal(c, "book list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/books/search?q=
func (h *Controller) Search(c echo.Context) error {
	rows, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.internal(c, "book search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(rows), "data": rows})
}

// GET /api/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booksvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		}
		return h.internal(c, "book detail", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
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
