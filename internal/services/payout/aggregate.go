package payout

import (
	"context"

	"tourneypay/internal/models"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/split"
)

// Restage recomputes the split of p from TotalCollected. Paid installments
// keep their amount; a pending installment absorbs the difference, so
// Payout1Amount+Payout2Amount equals OrganizerShare while either is pending.
func Restage(p *models.TournamentPayment) {
	r := split.Split(p.TotalCollected, split.ParsePercent(p.PlatformFeePercent))
	p.PlatformFeeAmount = r.PlatformFeeAmount
	p.OrganizerShare = r.OrganizerShare

	paid1 := p.Payout1Status == models.PayoutPaid
	paid2 := p.Payout2Status == models.PayoutPaid
	switch {
	case !paid1 && !paid2:
		p.Payout1Amount = r.Payout1
		p.Payout2Amount = r.Payout2
	case paid1 && !paid2:
		p.Payout2Amount = r.OrganizerShare - p.Payout1Amount
	case !paid1 && paid2:
		p.Payout1Amount = r.OrganizerShare - p.Payout2Amount
	}
}

// ApplyCollected moves TotalCollected by collected and TotalRefunded by
// refunded on the locked aggregate of tournament and restages the split.
// It must run inside tx.
func (s *Service) ApplyCollected(ctx context.Context, tx repositories.Store, tournament *models.Tournament, collected, refunded int64) (*models.TournamentPayment, error) {
	payment, err := tx.TournamentPayments().GetOrCreateForUpdate(ctx, tournament.ID, tournament.OrganizerID, s.cfg.PlatformFeePercent.String())
	if err != nil {
		return nil, err
	}

	payment.TotalCollected += collected
	payment.TotalRefunded += refunded
	Restage(payment)

	if err := tx.TournamentPayments().Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}
