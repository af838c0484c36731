package models

import "time"

// Registration statuses
const (
	RegistrationPending               = "pending"
	RegistrationConfirmed             = "confirmed"
	RegistrationCancellationRequested = "cancellation_requested"
	RegistrationCancelled             = "cancelled"
	RegistrationRejected              = "rejected"
)

// Registration payment statuses
const (
	PaymentPending   = "pending"
	PaymentSubmitted = "submitted"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
	PaymentFailed    = "failed"
)

const RefundStatusRefunded = "refunded"

// Registration links a player (and optional partner) to a category.
// AmountTotal is the entry fee at registration time and is never recomputed.
type Registration struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	TournamentID  uint      `gorm:"not null;index" json:"tournament_id"`
	CategoryID    uint      `gorm:"not null;index" json:"category_id"`
	PlayerID      uint      `gorm:"not null;index" json:"player_id"`
	PartnerID     *uint     `json:"partner_id,omitempty"`
	Status        string    `gorm:"not null;default:'pending';index" json:"status"`
	PaymentStatus string    `gorm:"not null;default:'pending'" json:"payment_status"`
	RefundStatus  string    `gorm:"default:''" json:"refund_status,omitempty"`
	AmountTotal   int64     `gorm:"not null" json:"amount_total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the registration counts towards the fee lock and capacity.
func (r *Registration) IsActive() bool {
	return r.Status != RegistrationCancelled && r.Status != RegistrationRejected
}

// HasParticipant reports whether userID is the player or the partner.
func (r *Registration) HasParticipant(userID uint) bool {
	return r.PlayerID == userID || (r.PartnerID != nil && *r.PartnerID == userID)
}
