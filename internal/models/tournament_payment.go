package models

import "time"

// Payout installment statuses
const (
	PayoutPending = "pending"
	PayoutPaid    = "paid"
)

// TournamentPayment is the settlement projection of a tournament, rebuilt in
// the same transaction as every ledger entry that changes TotalCollected.
type TournamentPayment struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	TournamentID       uint       `gorm:"not null;uniqueIndex" json:"tournament_id"`
	OrganizerID        uint       `gorm:"not null;index" json:"organizer_id"`
	TotalCollected     int64      `gorm:"not null;default:0" json:"total_collected"`
	TotalRefunded      int64      `gorm:"not null;default:0" json:"total_refunded"`
	PlatformFeePercent string     `gorm:"not null;default:'5'" json:"platform_fee_percent"`
	PlatformFeeAmount  int64      `gorm:"not null;default:0" json:"platform_fee_amount"`
	OrganizerShare     int64      `gorm:"not null;default:0" json:"organizer_share"`
	Payout1Amount      int64      `gorm:"not null;default:0" json:"payout1_amount"`
	Payout2Amount      int64      `gorm:"not null;default:0" json:"payout2_amount"`
	Payout1Status      string     `gorm:"not null;default:'pending'" json:"payout1_status"`
	Payout2Status      string     `gorm:"not null;default:'pending'" json:"payout2_status"`
	Payout1PaidAt      *time.Time `json:"payout1_paid_at,omitempty"`
	Payout2PaidAt      *time.Time `json:"payout2_paid_at,omitempty"`
	Payout1PaidBy      *uint      `json:"payout1_paid_by,omitempty"`
	Payout2PaidBy      *uint      `json:"payout2_paid_by,omitempty"`
	Payout1Notes       string     `json:"payout1_notes,omitempty"`
	Payout2Notes       string     `json:"payout2_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// InstallmentStatus returns the status of installment 1 or 2.
func (p *TournamentPayment) InstallmentStatus(installment int) string {
	if installment == 1 {
		return p.Payout1Status
	}
	return p.Payout2Status
}

// InstallmentAmount returns the staged amount of installment 1 or 2.
func (p *TournamentPayment) InstallmentAmount(installment int) int64 {
	if installment == 1 {
		return p.Payout1Amount
	}
	return p.Payout2Amount
}
