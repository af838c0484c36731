package payout

import (
	"context"
	"time"

	"tourneypay/internal/models"

	"github.com/shopspring/decimal"
)

const DefaultGracePeriod = 7 * 24 * time.Hour

type Config struct {
	// PlatformFeePercent is applied as given. Zero means no platform fee.
	PlatformFeePercent decimal.Decimal
	// GracePeriod is added to the tournament end date before installment 2 is overdue.
	GracePeriod time.Duration
	Now         func() time.Time
}

// SummaryCache caches TournamentPayment aggregates for reads.
type SummaryCache interface {
	GetTournamentPayment(ctx context.Context, tournamentID uint) (*models.TournamentPayment, error)
	CacheTournamentPayment(ctx context.Context, payment *models.TournamentPayment) error
	InvalidateTournamentPayment(ctx context.Context, tournamentID uint) error
}

type OverduePayout struct {
	TournamentID   uint      `json:"tournament_id"`
	TournamentName string    `json:"tournament_name"`
	OrganizerID    uint      `json:"organizer_id"`
	Installment    int       `json:"installment"`
	Amount         int64     `json:"amount"`
	DueAt          time.Time `json:"due_at"`
	DaysOverdue    int       `json:"days_overdue"`
}
