package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions
const (
	AuditCategoryFeeChange   = "CATEGORY_FEE_CHANGE"
	AuditPaymentApprove      = "PAYMENT_APPROVE"
	AuditPaymentReject       = "PAYMENT_REJECT"
	AuditPayoutMarkedPaid    = "PAYOUT_MARKED_PAID"
	AuditCancellationRequest = "CANCELLATION_REQUEST"
	AuditCancellationApprove = "CANCELLATION_APPROVE"
	AuditCancellationReject  = "CANCELLATION_REJECT"
	AuditUserImpersonate     = "USER_IMPERSONATE"
	AuditUserSuspend         = "USER_SUSPEND"
	AuditTournamentCancel    = "TOURNAMENT_CANCEL"
	AuditExport              = "AUDIT_EXPORT"
)

// Audit entity types
const (
	EntityCategory            = "category"
	EntityPaymentVerification = "payment_verification"
	EntityTournamentPayment   = "tournament_payment"
	EntityCancellationRequest = "cancellation_request"
	EntityUser                = "user"
	EntityAuditLog            = "audit_log"
)

// AuditLogEntry is append-only.
type AuditLogEntry struct {
	ID         uint              `gorm:"primarykey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	OnBehalfOf *uint             `json:"on_behalf_of,omitempty"`
	Action     string            `gorm:"not null;index" json:"action"`
	EntityType string            `gorm:"not null;index:idx_audit_entity,priority:1" json:"entity_type"`
	EntityID   uint              `gorm:"not null;index:idx_audit_entity,priority:2" json:"entity_id"`
	Details    datatypes.JSONMap `gorm:"type:jsonb" json:"details"`
	IPAddress  string            `json:"ip_address"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

func (AuditLogEntry) TableName() string { return "audit_log_entries" }
