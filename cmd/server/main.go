package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/library-seat-booking/internal/booking"
	"github.com/iliyamo/library-seat-booking/internal/config"
	"github.com/iliyamo/library-seat-booking/internal/database"
	"github.com/iliyamo/library-seat-booking/internal/handler"
	appmw "github.com/iliyamo/library-seat-booking/internal/middleware"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	"github.com/iliyamo/library-seat-booking/internal/router"
	"github.com/iliyamo/library-seat-booking/internal/service/queue_publisher"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	publisher := queue_publisher.New()

	svc := booking.NewService(store, publisher, time.Duration(cfg.HoldTTLMin)*time.Minute)

	sched, err := booking.StartSweeper(svc, time.Duration(cfg.SweepEveryMin)*time.Minute)
	if err != nil {
		log.Printf("sweeper not started: %v", err)
	} else {
		defer func() { _ = sched.Shutdown() }()
	}

	go queue.StartSeatEventConsumer()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, cfg), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewSeatHandler(svc), config.LoadCacheConfig(), rdb)
	router.RegisterClient(e, handler.NewClientBookingHandler(svc), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminBookingHandler(svc), cfg.JWTSecret)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
