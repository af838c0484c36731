package handlers

import (
	"strconv"
	"time"

	"tourneypay/internal/middleware"
	"tourneypay/internal/services/payout"
	"tourneypay/internal/services/split"
	"tourneypay/internal/utils/response"
	"tourneypay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SettlementHandler struct {
	payouts            *payout.Service
	platformFeePercent decimal.Decimal
}

func NewSettlementHandler(payouts *payout.Service, platformFeePercent decimal.Decimal) *SettlementHandler {
	return &SettlementHandler{payouts: payouts, platformFeePercent: platformFeePercent}
}

// Split previews the fee split of an amount. An optional percent query
// overrides the configured platform fee.
func (h *SettlementHandler) Split(c *fiber.Ctx) error {
	total, err := strconv.ParseInt(c.Query("total"), 10, 64)
	if err != nil || total < 0 {
		return response.BadRequest(c, "total must be a non-negative integer")
	}

	pct := h.platformFeePercent
	if raw := c.Query("percent"); raw != "" {
		pct, err = decimal.NewFromString(raw)
		if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return response.BadRequest(c, "percent must be between 0 and 100")
		}
	}

	return response.Success(c, "Split calculated", split.Split(total, pct))
}

func (h *SettlementHandler) Summary(c *fiber.Ctx) error {
	tournamentID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid tournament ID")
	}

	summary, err := h.payouts.Summary(c.UserContext(), tournamentID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tournament payment retrieved", summary)
}

// MarkPaid records that an installment was paid out to the organizer.
func (h *SettlementHandler) MarkPaid(c *fiber.Ctx) error {
	tournamentID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid tournament ID")
	}
	installment, err := strconv.Atoi(c.Params("installment"))
	if err != nil {
		return response.BadRequest(c, "Invalid installment")
	}

	var input struct {
		Notes string `json:"notes" validate:"max=500"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	payment, err := h.payouts.MarkPaid(c.UserContext(), middleware.Actor(c), tournamentID, installment, input.Notes)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Payout marked as paid", payment)
}

func (h *SettlementHandler) ListOverdue(c *fiber.Ctx) error {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		t, ok := parseTime(raw)
		if !ok {
			return response.BadRequest(c, "as_of must be RFC3339 or YYYY-MM-DD")
		}
		asOf = t
	}

	overdue, err := h.payouts.ListOverdue(c.UserContext(), asOf)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Overdue payouts retrieved", fiber.Map{
		"as_of":   asOf,
		"count":   len(overdue),
		"overdue": overdue,
	})
}
