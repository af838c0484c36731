// Package split computes how a collected total is divided between the
// platform and the organizer, and how the organizer share is staged into
// two payout installments.
package split

import (
	"github.com/shopspring/decimal"
)

var (
	DefaultPlatformFeePercent = decimal.NewFromInt(5)
	// Payout1Ratio is the part of the organizer share paid before the event.
	Payout1Ratio = decimal.RequireFromString("0.30")

	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

type Result struct {
	TotalCollected     int64           `json:"total_collected"`
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent"`
	PlatformFeeAmount  int64           `json:"platform_fee_amount"`
	OrganizerShare     int64           `json:"organizer_share"`
	Payout1            int64           `json:"payout1"`
	Payout2            int64           `json:"payout2"`
}

// Split divides totalCollected minor units. The fee and payout1 are rounded
// half up; organizer share and payout2 are remainders so both sums are exact.
func Split(totalCollected int64, platformFeePercent decimal.Decimal) Result {
	total := decimal.NewFromInt(totalCollected)

	fee := roundHalfUp(total.Mul(platformFeePercent).Div(hundred))
	share := totalCollected - fee
	payout1 := roundHalfUp(decimal.NewFromInt(share).Mul(Payout1Ratio))

	return Result{
		TotalCollected:     totalCollected,
		PlatformFeePercent: platformFeePercent,
		PlatformFeeAmount:  fee,
		OrganizerShare:     share,
		Payout1:            payout1,
		Payout2:            share - payout1,
	}
}

// ParsePercent reads a stored percentage, falling back to the default.
func ParsePercent(s string) decimal.Decimal {
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return DefaultPlatformFeePercent
	}
	return pct
}

func roundHalfUp(d decimal.Decimal) int64 {
	// decimal.Round rounds half away from zero, which differs for negatives.
	return d.Add(half).Floor().IntPart()
}
