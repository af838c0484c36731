package cancellation

import (
	"sort"
	"time"

	"tourneypay/internal/models"

	"github.com/shopspring/decimal"
)

// RefundPolicy computes the tentative refund of a cancellation request made
// at the given time.
type RefundPolicy interface {
	RefundAmount(registration *models.Registration, tournament *models.Tournament, at time.Time) int64
}

// FullRefundPolicy refunds AmountTotal whenever the payment was completed.
type FullRefundPolicy struct{}

func (FullRefundPolicy) RefundAmount(registration *models.Registration, _ *models.Tournament, _ time.Time) int64 {
	if registration.PaymentStatus != models.PaymentCompleted {
		return 0
	}
	return registration.AmountTotal
}

// Tier refunds Percent of the amount when the request is made at least
// MinDaysBefore days before the tournament starts.
type Tier struct {
	MinDaysBefore int
	Percent       int64
}

// SlidingScalePolicy picks the first tier whose threshold is met, checking
// the largest threshold first. No matching tier means no refund.
type SlidingScalePolicy struct {
	tiers []Tier
}

func NewSlidingScalePolicy(tiers ...Tier) *SlidingScalePolicy {
	sorted := append([]Tier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinDaysBefore > sorted[j].MinDaysBefore })
	return &SlidingScalePolicy{tiers: sorted}
}

func (p *SlidingScalePolicy) RefundAmount(registration *models.Registration, tournament *models.Tournament, at time.Time) int64 {
	if registration.PaymentStatus != models.PaymentCompleted {
		return 0
	}
	days := DaysBefore(tournament.StartDate, at)
	for _, tier := range p.tiers {
		if days >= tier.MinDaysBefore {
			return percentOf(registration.AmountTotal, tier.Percent)
		}
	}
	return 0
}

// DaysBefore counts whole days from at until start; negative once started.
func DaysBefore(start, at time.Time) int {
	d := start.Sub(at)
	if d < 0 {
		return -int((-d).Hours()/24) - 1
	}
	return int(d.Hours() / 24)
}

func percentOf(amount, percent int64) int64 {
	if percent >= 100 {
		return amount
	}
	if percent <= 0 {
		return 0
	}
	v := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(percent)).Div(decimal.NewFromInt(100))
	return v.Add(decimal.New(5, -1)).Floor().IntPart()
}
