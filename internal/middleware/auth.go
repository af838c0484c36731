// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, elevation and idempotency
// middleware for the fiber web framework.
package middleware

import (
	"log"
	"strings"

	"tourneypay/internal/models"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates session tokens issued by the auth service and
// adds the user claims to the request context.
type AuthMiddleware struct {
	secret string
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: secret}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), m.secret)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if len(claims.Permissions) == 0 {
		claims.Permissions = models.GetDefaultPermissions(claims.Role)
	}

	c.Locals("claims", claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid claims"})
	}
	if claims.Role != models.RoleAdmin {
		log.Printf("Access denied: user %d role is %s, not admin", claims.UserID, claims.Role)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.UserClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		// If user is admin, allow all permissions
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

// Actor builds the audit actor of the request: the authenticated user, acting
// for the elevation target when an elevation token was presented.
func Actor(c *fiber.Ctx) audit.Actor {
	actor := audit.Actor{IP: c.IP()}
	if claims, err := utils.GetUserClaims(c); err == nil {
		actor.ID = claims.UserID
	}
	if elevation := utils.GetElevation(c); elevation != nil {
		target := elevation.TargetUserID
		actor.OnBehalfOf = &target
	}
	return actor
}
