package models

import "time"

const (
	CancellationRequested = "requested"
	CancellationApproved  = "approved"
	CancellationRejected  = "rejected"
)

type CancellationRequest struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	RegistrationID    uint       `gorm:"not null;index" json:"registration_id"`
	TournamentID      uint       `gorm:"not null;index" json:"tournament_id"`
	PlayerID          uint       `gorm:"not null" json:"player_id"`
	Reason            string     `gorm:"type:text;not null" json:"reason"`
	RefundUpiID       string     `gorm:"not null" json:"refund_upi_id"`
	QRRef             string     `json:"qr_ref,omitempty"`
	RefundAmount      int64      `gorm:"not null;default:0" json:"refund_amount"`
	FinalRefundAmount *int64     `json:"final_refund_amount,omitempty"`
	PriorStatus       string     `gorm:"not null" json:"prior_status"`
	Status            string     `gorm:"not null;default:'requested';index" json:"status"`
	ReviewedBy        *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
