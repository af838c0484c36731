package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesCode(t *testing.T) {
	err := ErrAlreadyPaid.WithMessage("installment %d is already paid", 1)
	wrapped := fmt.Errorf("mark paid: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrAlreadyPaid))
	assert.False(t, stderrors.Is(wrapped, ErrAlreadyFinalized))
	assert.Equal(t, "installment 1 is already paid", err.Error())
	assert.Equal(t, KindState, KindOf(wrapped))
	assert.Equal(t, "ALREADY_PAID", CodeOf(wrapped))
}

func TestFeeLockedError(t *testing.T) {
	err := fmt.Errorf("update: %w", &FeeLockedError{CategoryID: 4, CurrentFee: 150, AttemptedFee: 200, RegistrationCount: 1})

	assert.True(t, stderrors.Is(err, ErrFeeLocked))
	assert.Equal(t, KindLock, KindOf(err))
	assert.Equal(t, "FEE_LOCKED", CodeOf(err))

	var locked *FeeLockedError
	assert.True(t, stderrors.As(err, &locked))
	assert.Equal(t, int64(150), locked.CurrentFee)
}

func TestKindOf_Infrastructure(t *testing.T) {
	err := stderrors.New("connection reset")
	assert.Equal(t, Kind(""), KindOf(err))
	assert.Equal(t, "", CodeOf(err))
}

func TestNotFound(t *testing.T) {
	err := NotFound("category", 9)
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, "category 9 not found", err.Error())
}
