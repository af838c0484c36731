package repositories

import (
	"context"
	"fmt"

	"tourneypay/internal/models"

	"gorm.io/gorm"
)

// TournamentRepository reads tournaments owned by the event CRUD surface.
type TournamentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Tournament, error)
	Create(ctx context.Context, tournament *models.Tournament) error
}

type tournamentRepository struct {
	db *gorm.DB
}

func (r *tournamentRepository) GetByID(ctx context.Context, id uint) (*models.Tournament, error) {
	var tournament models.Tournament
	if err := r.db.WithContext(ctx).First(&tournament, id).Error; err != nil {
		return nil, notFoundOr(err, "get tournament")
	}
	return &tournament, nil
}

func (r *tournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	if err := r.db.WithContext(ctx).Create(tournament).Error; err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}
