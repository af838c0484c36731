// Package errors defines the domain errors surfaced by the settlement engine.
//
// Every error carries a Kind so transports can tell a lock violation from a
// state violation, a timing violation or plain bad input, and a stable Code
// that callers can match with errors.Is.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	KindLock       Kind = "lock"
	KindState      Kind = "state"
	KindValidation Kind = "validation"
	KindTiming     Kind = "timing"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

var (
	ErrFeeLocked = &DomainError{
		Kind:    KindLock,
		Code:    "FEE_LOCKED",
		Message: "entry fee is locked because registrations exist",
	}
	ErrAlreadyFinalized = &DomainError{
		Kind:    KindState,
		Code:    "ALREADY_FINALIZED",
		Message: "already finalized",
	}
	ErrAlreadyPaid = &DomainError{
		Kind:    KindState,
		Code:    "ALREADY_PAID",
		Message: "already paid",
	}
	ErrInvalidState = &DomainError{
		Kind:    KindState,
		Code:    "INVALID_STATE",
		Message: "operation not allowed in the current state",
	}
	ErrVerificationPending = &DomainError{
		Kind:    KindState,
		Code:    "VERIFICATION_PENDING",
		Message: "a payment verification is already pending for this registration",
	}
	ErrCategoryFull = &DomainError{
		Kind:    KindState,
		Code:    "CATEGORY_FULL",
		Message: "category has reached its maximum participants",
	}
	ErrNotYetDue = &DomainError{
		Kind:    KindTiming,
		Code:    "NOT_YET_DUE",
		Message: "payout installment is not yet due",
	}
	ErrMissingReason = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_REASON",
		Message: "a rejection reason is required",
	}
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "invalid amount",
	}
	ErrAmountMismatch = &DomainError{
		Kind:    KindValidation,
		Code:    "AMOUNT_MISMATCH",
		Message: "amount does not match the registration fee",
	}
	ErrInvalidInstallment = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_INSTALLMENT",
		Message: "installment must be 1 or 2",
	}
	ErrInvalidUPI = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_UPI",
		Message: "refund UPI id is malformed",
	}
	ErrReasonTooShort = &DomainError{
		Kind:    KindValidation,
		Code:    "REASON_TOO_SHORT",
		Message: "cancellation reason is too short",
	}
	ErrInvalidRequest = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_REQUEST",
		Message: "invalid request",
	}
	ErrNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: "not found",
	}
	ErrInvalidPasscode = &DomainError{
		Kind:    KindAuth,
		Code:    "INVALID_PASSCODE",
		Message: "invalid passcode",
	}
	ErrInvalidToken = &DomainError{
		Kind:    KindAuth,
		Code:    "INVALID_TOKEN",
		Message: "invalid or expired token",
	}
)

// FeeLockedError carries the context of a blocked fee change.
type FeeLockedError struct {
	CategoryID        uint
	CurrentFee        int64
	AttemptedFee      int64
	RegistrationCount int64
}

func (e *FeeLockedError) Error() string {
	return fmt.Sprintf("entry fee of category %d is locked at %d (attempted %d, %d registrations)",
		e.CategoryID, e.CurrentFee, e.AttemptedFee, e.RegistrationCount)
}

func (e *FeeLockedError) Is(target error) bool {
	return target == ErrFeeLocked
}

// KindOf reports the Kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	var fl *FeeLockedError
	if stderrors.As(err, &fl) {
		return KindLock
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// CodeOf reports the Code of err, or "" for infrastructure errors.
func CodeOf(err error) string {
	var fl *FeeLockedError
	if stderrors.As(err, &fl) {
		return ErrFeeLocked.Code
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// NotFound builds a not-found error naming the entity.
func NotFound(entity string, id uint) *DomainError {
	return ErrNotFound.WithMessage("%s %d not found", entity, id)
}
