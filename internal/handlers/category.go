package handlers

import (
	"tourneypay/internal/middleware"
	"tourneypay/internal/services/feelock"
	"tourneypay/internal/services/registration"
	"tourneypay/internal/utils"
	"tourneypay/internal/utils/response"
	"tourneypay/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	feeLock       *feelock.Service
	registrations *registration.Service
}

func NewCategoryHandler(feeLock *feelock.Service, registrations *registration.Service) *CategoryHandler {
	return &CategoryHandler{feeLock: feeLock, registrations: registrations}
}

// CheckFee answers whether the entry fee may change to the proposed value.
func (h *CategoryHandler) CheckFee(c *fiber.Ctx) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid category ID")
	}

	var input struct {
		EntryFee *int64 `json:"entry_fee" validate:"required,gte=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	decision, err := h.feeLock.CanChangeFee(c.UserContext(), categoryID, *input.EntryFee)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Fee change allowed", decision)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid category ID")
	}

	var input struct {
		Name            *string `json:"name" validate:"omitempty,min=1,max=120"`
		MaxParticipants *int    `json:"max_participants" validate:"omitempty,gte=0"`
		EntryFee        *int64  `json:"entry_fee" validate:"omitempty,gte=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	category, err := h.feeLock.UpdateCategory(c.UserContext(), middleware.Actor(c), categoryID, feelock.CategoryUpdate{
		Name:            input.Name,
		MaxParticipants: input.MaxParticipants,
		EntryFee:        input.EntryFee,
	})
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Category updated successfully", category)
}

// Register signs the authenticated player (or the elevation target) up.
func (h *CategoryHandler) Register(c *fiber.Ctx) error {
	categoryID, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid category ID")
	}
	if _, err := utils.GetUserClaims(c); err != nil {
		return response.Unauthorized(c)
	}

	var input struct {
		PartnerID *uint `json:"partner_id" validate:"omitempty,gt=0"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return response.BadRequest(c, "Invalid request format")
		}
	}
	if errs := validation.Struct(&input); errs != nil {
		return response.ValidationError(c, errs)
	}

	reg, err := h.registrations.Register(c.UserContext(), categoryID, middleware.Actor(c).EffectiveUserID(), input.PartnerID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Registration created successfully", reg)
}
