// Package feelock guards category entry fees. Once any active registration
// references a category its fee is frozen; name and capacity stay editable.
package feelock

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/audit"
)

type FeeDecision struct {
	Allowed           bool  `json:"allowed"`
	CategoryID        uint  `json:"category_id"`
	CurrentFee        int64 `json:"current_fee"`
	AttemptedFee      int64 `json:"attempted_fee"`
	RegistrationCount int64 `json:"registration_count"`
}

// CategoryUpdate holds the fields to change; nil fields are left alone.
type CategoryUpdate struct {
	Name            *string
	MaxParticipants *int
	EntryFee        *int64
}

type Service struct {
	store repositories.Store
	now   func() time.Time
}

func NewService(store repositories.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CanChangeFee reports whether the fee of categoryID may become proposedFee.
// A blocked change returns the decision together with a *errors.FeeLockedError.
func (s *Service) CanChangeFee(ctx context.Context, categoryID uint, proposedFee int64) (*FeeDecision, error) {
	if proposedFee < 0 {
		return nil, appErrors.ErrInvalidAmount.WithMessage("entry fee must not be negative")
	}
	category, err := s.store.Categories().GetByID(ctx, categoryID)
	if err != nil {
		return nil, categoryErr(err, categoryID)
	}
	return decide(ctx, s.store, category, proposedFee)
}

// UpdateCategory applies upd under the category row lock, which serializes
// it against registration intake. A blocked fee change rejects the whole update.
func (s *Service) UpdateCategory(ctx context.Context, actor audit.Actor, categoryID uint, upd CategoryUpdate) (*models.Category, error) {
	if upd.EntryFee != nil && *upd.EntryFee < 0 {
		return nil, appErrors.ErrInvalidAmount.WithMessage("entry fee must not be negative")
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, appErrors.ErrInvalidRequest.WithMessage("category name must not be empty")
	}
	if upd.MaxParticipants != nil && *upd.MaxParticipants < 0 {
		return nil, appErrors.ErrInvalidRequest.WithMessage("max participants must not be negative")
	}

	var updated *models.Category
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		category, err := tx.Categories().GetForUpdate(ctx, categoryID)
		if err != nil {
			return categoryErr(err, categoryID)
		}

		oldFee := category.EntryFee
		feeChanged := false
		if upd.EntryFee != nil && *upd.EntryFee != category.EntryFee {
			if _, err := decide(ctx, tx, category, *upd.EntryFee); err != nil {
				return err
			}
			category.EntryFee = *upd.EntryFee
			feeChanged = true
		}
		if upd.Name != nil {
			category.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.MaxParticipants != nil {
			category.MaxParticipants = *upd.MaxParticipants
		}

		if err := tx.Categories().Update(ctx, category); err != nil {
			return err
		}

		if feeChanged {
			if err := audit.Record(ctx, tx, actor, audit.Entry{
				Action:     models.AuditCategoryFeeChange,
				EntityType: models.EntityCategory,
				EntityID:   category.ID,
				Details: map[string]interface{}{
					"old_fee": oldFee,
					"new_fee": category.EntryFee,
				},
			}, s.now()); err != nil {
				return err
			}
		}

		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Category %d updated by %d", categoryID, actor.ID)
	return updated, nil
}

func decide(ctx context.Context, store repositories.Store, category *models.Category, proposedFee int64) (*FeeDecision, error) {
	count, err := store.Registrations().CountActiveByCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}

	decision := &FeeDecision{
		Allowed:           count == 0 || proposedFee == category.EntryFee,
		CategoryID:        category.ID,
		CurrentFee:        category.EntryFee,
		AttemptedFee:      proposedFee,
		RegistrationCount: count,
	}
	if !decision.Allowed {
		return decision, &appErrors.FeeLockedError{
			CategoryID:        category.ID,
			CurrentFee:        category.EntryFee,
			AttemptedFee:      proposedFee,
			RegistrationCount: count,
		}
	}
	return decision, nil
}

func categoryErr(err error, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return appErrors.NotFound("category", id)
	}
	return err
}
