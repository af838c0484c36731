package handlers

import (
	"tourneypay/internal/middleware"
	"tourneypay/internal/services/cancellation"
	"tourneypay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type CancellationHandler struct {
	cancellations *cancellation.Service
}

func NewCancellationHandler(cancellations *cancellation.Service) *CancellationHandler {
	return &CancellationHandler{cancellations: cancellations}
}

func (h *CancellationHandler) Request(c *fiber.Ctx) error {
	registrationID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid registration ID")
	}

	var input struct {
		Reason      string `json:"reason"`
		RefundUpiID string `json:"refund_upi_id"`
		QRRef       string `json:"qr_ref"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	request, err := h.cancellations.Request(c.UserContext(), middleware.Actor(c), cancellation.RequestInput{
		RegistrationID: registrationID,
		Reason:         input.Reason,
		RefundUpiID:    input.RefundUpiID,
		QRRef:          input.QRRef,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Cancellation requested", request)
}

// Decide approves or rejects a pending cancellation request.
func (h *CancellationHandler) Decide(c *fiber.Ctx) error {
	requestID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid cancellation ID")
	}

	var input struct {
		Approve           *bool  `json:"approve"`
		FinalRefundAmount *int64 `json:"final_refund_amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.Approve == nil {
		return response.ValidationError(c, map[string]string{"approve": "is required"})
	}

	request, err := h.cancellations.Decide(c.UserContext(), middleware.Actor(c), requestID, *input.Approve, input.FinalRefundAmount)
	if err != nil {
		return response.FromError(c, err)
	}

	message := "Cancellation rejected"
	if *input.Approve {
		message = "Cancellation approved"
	}
	return response.Success(c, message, request)
}
