package middleware

import (
	"log"

	"tourneypay/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ElevationHeader = "X-Elevation-Token"

// ElevationVerifier validates elevation tokens.
type ElevationVerifier interface {
	Verify(token string) (*models.ElevationClaims, error)
}

// Elevation applies an optional elevation token. The token must belong to the
// authenticated admin; the request then acts on behalf of its target user.
func Elevation(verifier ElevationVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(ElevationHeader)
		if raw == "" {
			return c.Next()
		}

		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok || claims.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "elevation requires an admin session"})
		}

		elevation, err := verifier.Verify(raw)
		if err != nil {
			log.Printf("Elevation token rejected for user %d: %v", claims.UserID, err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid elevation token"})
		}
		if elevation.ActorID != claims.UserID {
			log.Printf("⚠️ User %d presented elevation token %s issued to %d", claims.UserID, elevation.ID, elevation.ActorID)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "elevation token belongs to another admin"})
		}

		c.Locals("elevation", elevation)
		return c.Next()
	}
}
