package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/arlenko/bookery/internal/config"     // Internal config loader
	"github.com/arlenko/bookery/internal/database"   // MySQL connection pool
	"github.com/arlenko/bookery/internal/handler"    // HTTP handlers
	"github.com/arlenko/bookery/internal/middleware" // Cache and rate-limit middleware
	"github.com/arlenko/bookery/internal/queue"      // Booking confirmation consumer
	"github.com/arlenko/bookery/internal/repository" // Data access layer
	"github.com/arlenko/bookery/internal/router"     // Route registration
	"github.com/arlenko/bookery/internal/service"    // Queue publisher
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs the response cache and the rate limiter. A nil client
	// disables both; the API itself keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	// Repositories
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	businessRepo := repository.NewBusinessRepo(db)
	experienceRepo := repository.NewExperienceRepo(db)
	eventRepo := repository.NewEventRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	guestRepo := repository.NewGuestRepo(db)
	addOnRepo := repository.NewAddOnRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, businessRepo)
	ownerHandler := handler.NewOwnerHandler(
		businessRepo, experienceRepo, eventRepo, sessionRepo,
		guestRepo, addOnRepo, bookingRepo,
		service.NewQueuePublisher(),
	)
	publicHandler := &handler.PublicHandler{
		ExperienceRepo: experienceRepo,
		EventRepo:      eventRepo,
		SessionRepo:    sessionRepo,
		AddOnRepo:      addOnRepo,
	}

	e := echo.New() // Create Echo instance

	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler)

	// Consume booking.confirmed events in the background; the loop
	// reconnects on broker failures.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
