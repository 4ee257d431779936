package echoServer

import (
	"net/http"

	"townbook/app/echoServer/controller/analytics"
	"townbook/app/echoServer/controller/auth"
	"townbook/app/echoServer/controller/book"
	"townbook/app/echoServer/controller/notification"
	"townbook/app/echoServer/controller/reservation"
	"townbook/app/echoServer/controller/room"
	"townbook/app/echoServer/jwtx"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth         *auth.Controller
	Book         *book.Controller
	Room         *room.Controller
	Reservation  *reservation.Controller
	Notification *notification.Controller
	Analytics    *analytics.Controller
	JWTSecret    string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/api")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(c.JWTSecret),
		TokenLookup: "header:Authorization:Bearer ",
	}))
	// Lift user_id and role out of the token so controllers never touch claims.
	api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			role, err := jwtx.RoleFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	// Users
	api.GET("/users/me", c.Auth.Me)
	api.PUT("/users/me", c.Auth.UpdateProfile)
	api.PUT("/users/me/password", c.Auth.UpdatePassword)

	// Books
	api.GET("/books", c.Book.List)
	api.GET("/books/search", c.Book.Search)
	api.GET("/books/:id", c.Book.Detail)
	api.POST("/books/reserve/:id", c.Reservation.ReserveBook)
	api.GET("/books/reservations/:id", c.Reservation.ListForBook)
	// Librarian endpoints
	api.POST("/books", c.Book.Create)
	api.PUT("/books/:id", c.Book.Update)
	api.DELETE("/books/:id", c.Book.Delete)
	api.PUT("/books/approve-reservation/:id", c.Reservation.Approve)
	api.PUT("/books/decline-reservation/:id", c.Reservation.Decline)
	api.PUT("/books/checkout/:id", c.Reservation.Checkout)
	api.PUT("/books/return/:id", c.Reservation.Return)

	// Rooms
	api.GET("/rooms", c.Room.List)
	api.GET("/rooms/search", c.Room.Search)
	api.GET("/rooms/:id", c.Room.Detail)
	api.GET("/rooms/:id/schedule", c.Room.Schedule)
	api.GET("/rooms/:id/availability", c.Reservation.CheckAvailability)
	api.POST("/rooms/reserve/:id", c.Reservation.ReserveRoom)
	api.GET("/rooms/reservations/:id", c.Reservation.ListForRoom)
	// Librarian endpoints
	api.POST("/rooms", c.Room.Create)
	api.PUT("/rooms/:id", c.Room.Update)
	api.DELETE("/rooms/:id", c.Room.Delete)
	api.PUT("/rooms/approve-reservation/:id", c.Reservation.Approve)
	api.PUT("/rooms/decline-reservation/:id", c.Reservation.Decline)
	api.PUT("/rooms/check-in/:id", c.Reservation.CheckIn)
	api.PUT("/rooms/check-out/:id", c.Reservation.CheckOutRoom)

	// Reservations
	api.GET("/reservations", c.Reservation.ListMine)
	api.GET("/reservations/:id", c.Reservation.Get)
	api.POST("/reservations/reserve", c.Reservation.Create)
	api.PUT("/reservations/:id/approve", c.Reservation.Approve)
	api.PUT("/reservations/:id/decline", c.Reservation.Decline)
	api.PUT("/reservations/:id/checkout", c.Reservation.Checkout)
	api.PUT("/reservations/:id/return", c.Reservation.Return)
	api.PUT("/reservations/:id/check-in", c.Reservation.CheckIn)
	api.PUT("/reservations/:id/check-out", c.Reservation.CheckOutRoom)
	api.DELETE("/reservations/:id", c.Reservation.Delete)

	// Notifications
	api.GET("/notifications", c.Notification.ListMine)
	api.GET("/notifications/unread-count", c.Notification.UnreadCount)
	api.PUT("/notifications/read-all", c.Notification.MarkAllRead)
	api.GET("/notifications/:id", c.Notification.Get)
	api.PUT("/notifications/:id/read", c.Notification.MarkRead)
	api.DELETE("/notifications/:id", c.Notification.Delete)

	// Analytics (librarian only, enforced in the controller)
	api.GET("/analytics/stats", c.Analytics.Stats)
	api.GET("/analytics/trends", c.Analytics.Trends)
	api.GET("/analytics/resource-usage", c.Analytics.ResourceUsage)
	api.GET("/analytics/user-activity", c.Analytics.UserActivity)
}
