package handlers

import (
	"tourneypay/internal/middleware"
	"tourneypay/internal/services/elevation"
	"tourneypay/internal/utils/response"
	"tourneypay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type ElevationHandler struct {
	elevation *elevation.Service
}

func NewElevationHandler(elevationSvc *elevation.Service) *ElevationHandler {
	return &ElevationHandler{elevation: elevationSvc}
}

// Issue exchanges the admin passcode for a short-lived token that lets the
// admin act on behalf of another user.
func (h *ElevationHandler) Issue(c *fiber.Ctx) error {
	var input struct {
		TargetUserID uint   `json:"target_user_id" validate:"required,gt=0"`
		Passcode     string `json:"passcode" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	token, err := h.elevation.Issue(c.UserContext(), middleware.Actor(c), input.TargetUserID, input.Passcode)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Elevation granted", token)
}
