package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
)

type VerificationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.PaymentVerification, error)
	Create(ctx context.Context, verification *models.PaymentVerification) error
	HasPending(ctx context.Context, registrationID uint) (bool, error)
	// UpdateIfStatus writes verification only if the stored status still equals
	// expected. It reports whether the row was written.
	UpdateIfStatus(ctx context.Context, verification *models.PaymentVerification, expected string) (bool, error)
	ListPending(ctx context.Context, tournamentID uint) ([]models.PaymentVerification, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func (r *verificationRepository) GetByID(ctx context.Context, id uint) (*models.PaymentVerification, error) {
	var verification models.PaymentVerification
	if err := r.db.WithContext(ctx).First(&verification, id).Error; err != nil {
		return nil, notFoundOr(err, "get payment verification")
	}
	return &verification, nil
}

func (r *verificationRepository) Create(ctx context.Context, verification *models.PaymentVerification) error {
	if err := r.db.WithContext(ctx).Create(verification).Error; err != nil {
		return fmt.Errorf("failed to create payment verification: %w", err)
	}
	return nil
}

func (r *verificationRepository) HasPending(ctx context.Context, registrationID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentVerification{}).
		Where("registration_id = ? AND status = ?", registrationID, models.VerificationPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending verifications: %w", err)
	}
	return count > 0, nil
}

func (r *verificationRepository) UpdateIfStatus(ctx context.Context, verification *models.PaymentVerification, expected string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentVerification{}).
		Where("id = ? AND status = ?", verification.ID, expected).
		Updates(map[string]interface{}{
			"status":           verification.Status,
			"verified_at":      verification.VerifiedAt,
			"verified_by":      verification.VerifiedBy,
			"rejection_reason": verification.RejectionReason,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update payment verification: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *verificationRepository) ListPending(ctx context.Context, tournamentID uint) ([]models.PaymentVerification, error) {
	var verifications []models.PaymentVerification
	err := r.db.WithContext(ctx).
		Where("tournament_id = ? AND status = ?", tournamentID, models.VerificationPending).
		Order("submitted_at ASC").
		Find(&verifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending verifications: %w", err)
	}
	return verifications, nil
}
