package handlers

import (
	"tourneypay/internal/middleware"
	"tourneypay/internal/services/verification"
	"tourneypay/internal/utils/response"
	"tourneypay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type PaymentHandler struct {
	verifications *verification.Service
}

func NewPaymentHandler(verifications *verification.Service) *PaymentHandler {
	return &PaymentHandler{verifications: verifications}
}

// Submit records a manual payment proof for a registration.
func (h *PaymentHandler) Submit(c *fiber.Ctx) error {
	registrationID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid registration ID")
	}

	var input struct {
		ScreenshotRef string `json:"screenshot_ref" validate:"max=512"`
		Amount        int64  `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	v, err := h.verifications.Submit(c.UserContext(), middleware.Actor(c), registrationID, input.ScreenshotRef, input.Amount)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Payment submitted for verification", v)
}

func (h *PaymentHandler) Approve(c *fiber.Ctx) error {
	verificationID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid verification ID")
	}

	v, err := h.verifications.Approve(c.UserContext(), middleware.Actor(c), verificationID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment approved", v)
}

func (h *PaymentHandler) Reject(c *fiber.Ctx) error {
	verificationID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid verification ID")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
	}

	v, err := h.verifications.Reject(c.UserContext(), middleware.Actor(c), verificationID, input.Reason)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payment rejected", v)
}

// ListPending returns the verifications awaiting review for a tournament.
func (h *PaymentHandler) ListPending(c *fiber.Ctx) error {
	tournamentID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid tournament ID")
	}

	pending, err := h.verifications.ListPending(c.UserContext(), tournamentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Pending verifications retrieved", pending)
}
