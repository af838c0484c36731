package models

// Permission constants
const (
	// Category permissions
	PermissionCategoryWrite = "category:write"

	// Registration permissions
	PermissionRegistrationWrite = "registration:write"

	// Payment permissions
	PermissionPaymentSubmit = "payment:submit"
	PermissionPaymentVerify = "payment:verify"

	// Cancellation permissions
	PermissionCancellationRequest = "cancellation:request"
	PermissionCancellationDecide  = "cancellation:decide"

	// Ledger permissions
	PermissionLedgerRead = "ledger:read"

	// Admin permissions
	PermissionReadAdmin  = "admin:read"
	PermissionWriteAdmin = "admin:write"
)

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{
			PermissionReadAdmin,
			PermissionWriteAdmin,
			PermissionCategoryWrite,
			PermissionRegistrationWrite,
			PermissionPaymentSubmit,
			PermissionPaymentVerify,
			PermissionCancellationRequest,
			PermissionCancellationDecide,
			PermissionLedgerRead,
		}
	case RoleOrganizer:
		return []string{
			PermissionCategoryWrite,
			PermissionPaymentVerify,
			PermissionCancellationDecide,
			PermissionLedgerRead,
		}
	case RolePlayer:
		return []string{
			PermissionRegistrationWrite,
			PermissionPaymentSubmit,
			PermissionCancellationRequest,
			PermissionLedgerRead,
		}
	default:
		return []string{}
	}
}
