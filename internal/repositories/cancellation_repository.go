package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
)

type CancellationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.CancellationRequest, error)
	Create(ctx context.Context, request *models.CancellationRequest) error
	// UpdateIfStatus writes the decision only if the stored status still equals expected.
	UpdateIfStatus(ctx context.Context, request *models.CancellationRequest, expected string) (bool, error)
}

type cancellationRepository struct {
	db *gorm.DB
}

func (r *cancellationRepository) GetByID(ctx context.Context, id uint) (*models.CancellationRequest, error) {
	var request models.CancellationRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return nil, notFoundOr(err, "get cancellation request")
	}
	return &request, nil
}

func (r *cancellationRepository) Create(ctx context.Context, request *models.CancellationRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create cancellation request: %w", err)
	}
	return nil
}

func (r *cancellationRepository) UpdateIfStatus(ctx context.Context, request *models.CancellationRequest, expected string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CancellationRequest{}).
		Where("id = ? AND status = ?", request.ID, expected).
		Updates(map[string]interface{}{
			"status":              request.Status,
			"final_refund_amount": request.FinalRefundAmount,
			"reviewed_by":         request.ReviewedBy,
			"reviewed_at":         request.ReviewedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update cancellation request: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
