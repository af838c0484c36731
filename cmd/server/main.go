// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourneypay/internal/config"
	"tourneypay/internal/repositories"
	"tourneypay/internal/routes"
	"tourneypay/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	// Initialize databases (PostgreSQL + Redis)
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer repositories.Close()

	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("✅ Successfully connected to database with connection pooling")

	// Add a periodic check of connection pool stats
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			log.Printf("DB Stats: Open=%d, Idle=%d, InUse=%d, WaitCount=%d, WaitDuration=%s",
				stats.OpenConnections, stats.Idle, stats.InUse, stats.WaitCount, stats.WaitDuration)
		}
	}()

	if err := repositories.CacheService.HealthCheck(context.Background()); err != nil {
		log.Printf("⚠️ Redis unavailable, idempotency and summary caching degrade: %v", err)
	}

	settlement := config.LoadSettlement()
	if settlement.AdminPasscodeHash == "" {
		log.Println("⚠️ ADMIN_PASSCODE_HASH is not set, elevation is disabled")
	}

	var uploader storage.FileUploader
	if r2 := storage.R2ConfigFromEnv(); r2.Enabled() {
		uploader, err = storage.NewR2Uploader(context.Background(), r2)
		if err != nil {
			log.Fatalf("❌ Failed to configure R2: %v", err)
		}
		log.Println("✅ R2 audit archive enabled")
	}

	deps := routes.Dependencies{
		Store:      repositories.NewStore(repositories.DB),
		Cache:      repositories.CacheService,
		Uploader:   uploader,
		Health:     repositories.DBHealth{DB: repositories.DB},
		Settlement: settlement,
		JWTSecret:  config.GetEnv("JWT_SECRET", "tourneypay"),
	}
	services := routes.NewServices(deps)

	if err := services.Sweeper.Start(settlement.OverdueSweepHour); err != nil {
		log.Fatalf("❌ Failed to start overdue payout sweep: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "TourneyPay",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Elevation-Token",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/admin/elevation", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	// Routes
	routes.SetupRoutes(app, deps, services)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := services.Sweeper.Stop(); err != nil {
			log.Printf("⚠️ Failed to stop overdue payout sweep: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Failed to shut down server: %v", err)
		}
	}()

	// Start server
	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}
}
