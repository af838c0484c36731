package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

const IdempotencyHeader = "Idempotency-Key"

// KeyClaimer is backed by the Redis cache service.
type KeyClaimer interface {
	ClaimKey(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Idempotency rejects a replayed Idempotency-Key within ttl. A key whose
// request failed is released so the client may retry with it.
func Idempotency(claimer KeyClaimer, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyHeader)
		if key == "" || claimer == nil {
			return c.Next()
		}

		userID, _ := c.Locals("userID").(uint)
		cacheKey := fmt.Sprintf("idempotency:%d:%s:%s:%s", userID, c.Method(), c.Path(), key)

		claimed, err := claimer.ClaimKey(c.UserContext(), cacheKey, ttl)
		if err != nil {
			// Fail open when Redis is unavailable.
			log.Printf("⚠️ Idempotency check failed: %v", err)
			return c.Next()
		}
		if !claimed {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "request with this Idempotency-Key was already processed",
				"code":  "DUPLICATE_REQUEST",
			})
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			if delErr := claimer.Delete(c.UserContext(), cacheKey); delErr != nil {
				log.Printf("⚠️ Failed to release idempotency key: %v", delErr)
			}
		}
		return err
	}
}
