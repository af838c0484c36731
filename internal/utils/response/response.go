package response

import (
	"errors"
	"log"

	appErrors "tourneypay/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "Insufficient permissions")
}

// ValidationError reports field errors collected from a request body.
func ValidationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"code":   appErrors.ErrInvalidRequest.Code,
		"fields": fields,
	})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind appErrors.Kind) int {
	switch kind {
	case appErrors.KindLock, appErrors.KindState:
		return fiber.StatusConflict
	case appErrors.KindTiming:
		return fiber.StatusUnprocessableEntity
	case appErrors.KindValidation:
		return fiber.StatusBadRequest
	case appErrors.KindNotFound:
		return fiber.StatusNotFound
	case appErrors.KindAuth:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError writes the response for an error returned by a service.
func FromError(c *fiber.Ctx, err error) error {
	var locked *appErrors.FeeLockedError
	if errors.As(err, &locked) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":              "Entry fee cannot be changed while registrations exist",
			"code":               appErrors.ErrFeeLocked.Code,
			"current_fee":        locked.CurrentFee,
			"attempted_fee":      locked.AttemptedFee,
			"registration_count": locked.RegistrationCount,
		})
	}

	var domainErr *appErrors.DomainError
	if errors.As(err, &domainErr) {
		return c.Status(StatusFor(domainErr.Kind)).JSON(fiber.Map{
			"error": domainErr.Message,
			"code":  domainErr.Code,
		})
	}

	log.Printf("❌ %s %s failed: %v", c.Method(), c.Path(), err)
	return ServerError(c, "Internal server error")
}
