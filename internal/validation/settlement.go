package validation

import (
	"sort"
	"strings"

	appErrors "tourneypay/internal/errors"
)

// ValidateCancellationRequest checks the player supplied fields of a
// cancellation request.
func ValidateCancellationRequest(reason, refundUpiID string) error {
	v := New()
	v.Required("reason", reason)
	v.MaxLength("reason", reason, MaxReasonLength)
	v.Required("refund_upi_id", refundUpiID)

	if !v.Valid() {
		return appErrors.ErrInvalidRequest.WithMessage("%s", v.Error())
	}
	if len([]rune(strings.TrimSpace(reason))) < MinCancellationReasonLength {
		return appErrors.ErrReasonTooShort.WithMessage("reason must be at least %d characters long", MinCancellationReasonLength)
	}
	if !IsUPIID(refundUpiID) {
		return appErrors.ErrInvalidUPI.WithMessage("refund UPI id %q is malformed", refundUpiID)
	}
	return nil
}

// ValidateNotes limits free text attached to payouts and decisions.
func ValidateNotes(notes string) error {
	v := New()
	v.MaxLength("notes", notes, MaxNotesLength)
	if !v.Valid() {
		return appErrors.ErrInvalidRequest.WithMessage("%s", v.Error())
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
