// Package registration creates registrations with a snapshot of the entry fee.
package registration

import (
	"context"
	"errors"
	"log"

	appErrors "tourneypay/internal/errors"
	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
)

type Service struct {
	store repositories.Store
}

func NewService(store repositories.Store) *Service {
	return &Service{store: store}
}

// Register locks the category, enforces its capacity and stores the current
// fee as the registration's AmountTotal.
func (s *Service) Register(ctx context.Context, categoryID, playerID uint, partnerID *uint) (*models.Registration, error) {
	if playerID == 0 {
		return nil, appErrors.ErrInvalidRequest.WithMessage("player is required")
	}
	if partnerID != nil && *partnerID == playerID {
		return nil, appErrors.ErrInvalidRequest.WithMessage("partner must differ from player")
	}

	var created *models.Registration
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		category, err := tx.Categories().GetForUpdate(ctx, categoryID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return appErrors.NotFound("category", categoryID)
			}
			return err
		}

		if category.MaxParticipants > 0 {
			count, err := tx.Registrations().CountActiveByCategory(ctx, categoryID)
			if err != nil {
				return err
			}
			if count >= int64(category.MaxParticipants) {
				return appErrors.ErrCategoryFull.WithMessage("category %d is full (%d/%d)", categoryID, count, category.MaxParticipants)
			}
		}

		registration := &models.Registration{
			TournamentID:  category.TournamentID,
			CategoryID:    category.ID,
			PlayerID:      playerID,
			PartnerID:     partnerID,
			Status:        models.RegistrationPending,
			PaymentStatus: models.PaymentPending,
			AmountTotal:   category.EntryFee,
		}
		if err := tx.Registrations().Create(ctx, registration); err != nil {
			return err
		}
		created = registration
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Player %d registered in category %d (amount %d)", playerID, categoryID, created.AmountTotal)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Registration, error) {
	registration, err := s.store.Registrations().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, appErrors.NotFound("registration", id)
		}
		return nil, err
	}
	return registration, nil
}
