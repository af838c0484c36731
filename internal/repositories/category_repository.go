package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	// GetForUpdate locks the category row until the transaction ends.
	GetForUpdate(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
}

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "get category")
	}
	return &category, nil
}

func (r *categoryRepository) GetForUpdate(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := forUpdate(r.db.WithContext(ctx)).First(&category, id).Error; err != nil {
		return nil, notFoundOr(err, "lock category")
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}
