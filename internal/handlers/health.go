package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a backing service.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheck reports the status of the database and cache.
func HealthCheck(db, cache Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		services := fiber.Map{"database": "connected", "redis": "connected"}
		status := fiber.StatusOK
		if db != nil {
			if err := db.HealthCheck(ctx); err != nil {
				services["database"] = err.Error()
				status = fiber.StatusServiceUnavailable
			}
		}
		if cache != nil {
			if err := cache.HealthCheck(ctx); err != nil {
				services["redis"] = err.Error()
				status = fiber.StatusServiceUnavailable
			}
		} else {
			services["redis"] = "disabled"
		}

		return c.Status(status).JSON(fiber.Map{
			"status":   map[bool]string{true: "ok", false: "degraded"}[status == fiber.StatusOK],
			"version":  "1.0.0",
			"services": services,
		})
	}
}
