// Package main TownBook API.
//
// @title           TownBook API
// @version         1.0
// @description     Community library backend (books, rooms, reservations, notifications).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"townbook/app/echoServer"
	analyticsctrl "townbook/app/echoServer/controller/analytics"
	authctrl "townbook/app/echoServer/controller/auth"
	bookctrl "townbook/app/echoServer/controller/book"
	notificationctrl "townbook/app/echoServer/controller/notification"
	reservationctrl "townbook/app/echoServer/controller/reservation"
	roomctrl "townbook/app/echoServer/controller/room"
	"townbook/app/echoServer/limiter"
	"townbook/app/echoServer/validation"
	"townbook/config"
	analyticsrepo "townbook/repository/analytics"
	bookrepo "townbook/repository/book"
	notifrepo "townbook/repository/notification"
	reservationrepo "townbook/repository/reservation"
	roomrepo "townbook/repository/room"
	userrepo "townbook/repository/user"
	analyticssvc "townbook/service/analytics"
	authsvc "townbook/service/auth"
	booksvc "townbook/service/book"
	notificationsvc "townbook/service/notification"
	reservationsvc "townbook/service/reservation"
	roomsvc "townbook/service/room"
	"townbook/util/database"
	"townbook/util/schedule"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// optional redis-backed rate limiter
	var rl *limiter.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		rl = &limiter.Limiter{Redis: rdb, Limit: cfg.RateLimit, FailOpen: true}
	}

	policy, err := schedule.ParsePolicy(cfg.OverlapPolicy)
	if err != nil {
		log.Error("bad overlap policy", "value", cfg.OverlapPolicy, "err", err)
		os.Exit(1)
	}

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	rr := roomrepo.New(db)
	nr := notifrepo.New(db)
	resr := reservationrepo.New(db)
	anr := analyticsrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	rs := roomsvc.New(rr)
	ns := notificationsvc.New(nr, cfg.WebhookURL, log)
	ress := reservationsvc.New(resr, ns, policy, log)
	ans := analyticssvc.New(anr)

	// controllers
	val := validation.New()
	v := val.Raw()
	debug := cfg.Env == "dev"
	authC := &authctrl.Controller{Svc: as, V: v, Log: log, Debug: debug}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log, Debug: debug}
	roomC := &roomctrl.Controller{Svc: rs, V: v, Log: log, Debug: debug}
	resC := &reservationctrl.Controller{Svc: ress, V: v, Log: log, Debug: debug}
	notifC := &notificationctrl.Controller{Svc: ns, Log: log, Debug: debug}
	anC := &analyticsctrl.Controller{Svc: ans, Log: log, Debug: debug}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e, rl)
	e.Validator = val

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Book:         bookC,
		Room:         roomC,
		Reservation:  resC,
		Notification: notifC,
		Analytics:    anC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "overlap_policy", string(policy))

	e.Logger.Fatal(e.Start(":" + port))
}
