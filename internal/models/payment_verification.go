package models

import "time"

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// PaymentVerification is one proof-of-payment submission for a registration.
type PaymentVerification struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	RegistrationID  uint       `gorm:"not null;index" json:"registration_id"`
	TournamentID    uint       `gorm:"not null;index" json:"tournament_id"`
	ScreenshotRef   string     `gorm:"not null" json:"screenshot_ref"`
	Amount          int64      `gorm:"not null" json:"amount"`
	Status          string     `gorm:"not null;default:'pending';index" json:"status"`
	SubmittedAt     time.Time  `gorm:"not null" json:"submitted_at"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	VerifiedBy      *uint      `json:"verified_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (v *PaymentVerification) IsTerminal() bool {
	return v.Status != VerificationPending
}
