package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
)

type RegistrationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Registration, error)
	Create(ctx context.Context, registration *models.Registration) error
	Update(ctx context.Context, registration *models.Registration) error
	// CountActiveByCategory counts registrations that are neither cancelled nor rejected.
	CountActiveByCategory(ctx context.Context, categoryID uint) (int64, error)
}

type registrationRepository struct {
	db *gorm.DB
}

func (r *registrationRepository) GetByID(ctx context.Context, id uint) (*models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).First(&registration, id).Error; err != nil {
		return nil, notFoundOr(err, "get registration")
	}
	return &registration, nil
}

func (r *registrationRepository) GetForUpdate(ctx context.Context, id uint) (*models.Registration, error) {
	var registration models.Registration
	if err := forUpdate(r.db.WithContext(ctx)).First(&registration, id).Error; err != nil {
		return nil, notFoundOr(err, "lock registration")
	}
	return &registration, nil
}

func (r *registrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if err := r.db.WithContext(ctx).Create(registration).Error; err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *registrationRepository) Update(ctx context.Context, registration *models.Registration) error {
	if err := r.db.WithContext(ctx).Save(registration).Error; err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}
	return nil
}

func (r *registrationRepository) CountActiveByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Registration{}).
		Where("category_id = ? AND status NOT IN ?", categoryID,
			[]string{models.RegistrationCancelled, models.RegistrationRejected}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}
