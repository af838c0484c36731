package repositories

import (
	"context"
	"fmt"
	"time"

	"tourneypay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TournamentPaymentRepository interface {
	GetByTournament(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error)
	GetForUpdate(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error)
	// GetOrCreateForUpdate locks the aggregate of a tournament, creating an
	// empty one owned by organizerID on first use.
	GetOrCreateForUpdate(ctx context.Context, tournamentID, organizerID uint, platformFeePercent string) (*models.TournamentPayment, error)
	Create(ctx context.Context, payment *models.TournamentPayment) error
	Update(ctx context.Context, payment *models.TournamentPayment) error
	// MarkInstallmentPaid flips a pending installment to paid and reports
	// whether this call won the transition.
	MarkInstallmentPaid(ctx context.Context, tournamentID uint, installment int, paidAt time.Time, paidBy uint, notes string) (bool, error)
	ListWithPendingPayouts(ctx context.Context) ([]models.TournamentPayment, error)
}

type tournamentPaymentRepository struct {
	db *gorm.DB
}

func (r *tournamentPaymentRepository) GetByTournament(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	var payment models.TournamentPayment
	err := r.db.WithContext(ctx).Where("tournament_id = ?", tournamentID).First(&payment).Error
	if err != nil {
		return nil, notFoundOr(err, "get tournament payment")
	}
	return &payment, nil
}

func (r *tournamentPaymentRepository) GetForUpdate(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error) {
	var payment models.TournamentPayment
	err := forUpdate(r.db.WithContext(ctx)).Where("tournament_id = ?", tournamentID).First(&payment).Error
	if err != nil {
		return nil, notFoundOr(err, "lock tournament payment")
	}
	return &payment, nil
}

func (r *tournamentPaymentRepository) GetOrCreateForUpdate(ctx context.Context, tournamentID, organizerID uint, platformFeePercent string) (*models.TournamentPayment, error) {
	seed := models.TournamentPayment{
		TournamentID:       tournamentID,
		OrganizerID:        organizerID,
		PlatformFeePercent: platformFeePercent,
		Payout1Status:      models.PayoutPending,
		Payout2Status:      models.PayoutPending,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tournament_id"}}, DoNothing: true}).
		Create(&seed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to open tournament payment: %w", err)
	}
	return r.GetForUpdate(ctx, tournamentID)
}

func (r *tournamentPaymentRepository) Create(ctx context.Context, payment *models.TournamentPayment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create tournament payment: %w", err)
	}
	return nil
}

func (r *tournamentPaymentRepository) Update(ctx context.Context, payment *models.TournamentPayment) error {
	if err := r.db.WithContext(ctx).Save(payment).Error; err != nil {
		return fmt.Errorf("failed to update tournament payment: %w", err)
	}
	return nil
}

func (r *tournamentPaymentRepository) MarkInstallmentPaid(ctx context.Context, tournamentID uint, installment int, paidAt time.Time, paidBy uint, notes string) (bool, error) {
	prefix := fmt.Sprintf("payout%d_", installment)
	result := r.db.WithContext(ctx).
		Model(&models.TournamentPayment{}).
		Where("tournament_id = ? AND "+prefix+"status = ?", tournamentID, models.PayoutPending).
		Updates(map[string]interface{}{
			prefix + "status":  models.PayoutPaid,
			prefix + "paid_at": paidAt,
			prefix + "paid_by": paidBy,
			prefix + "notes":   notes,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark payout paid: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *tournamentPaymentRepository) ListWithPendingPayouts(ctx context.Context) ([]models.TournamentPayment, error) {
	var payments []models.TournamentPayment
	err := r.db.WithContext(ctx).
		Where("payout1_status = ? OR payout2_status = ?", models.PayoutPending, models.PayoutPending).
		Order("tournament_id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payouts: %w", err)
	}
	return payments, nil
}
