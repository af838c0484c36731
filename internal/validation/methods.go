package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UPI virtual payment addresses look like handle@provider.
var upiRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{1,255}@[a-zA-Z][a-zA-Z0-9.-]{1,63}$`)

// Validator defines validation methods
type Validator struct {
	Errors map[string]string
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator unless the field already has one
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// Required checks if a value is present
func (v *Validator) Required(field string, value interface{}) {
	if value == nil {
		v.AddError(field, "must not be nil")
		return
	}

	switch val := value.(type) {
	case string:
		v.Check(strings.TrimSpace(val) != "", field, "must not be empty")
	case []string:
		v.Check(len(val) > 0, field, "must contain at least one item")
	case int:
		v.Check(val != 0, field, "must not be zero")
	case int64:
		v.Check(val != 0, field, "must not be zero")
	case uint:
		v.Check(val != 0, field, "must not be zero")
	}
}

// MinLength checks if a string has at least n characters
func (v *Validator) MinLength(field string, value string, n int) {
	v.Check(utf8.RuneCountInString(strings.TrimSpace(value)) >= n, field, fmt.Sprintf("must be at least %d characters long", n))
}

// MaxLength checks if a string has at most n characters
func (v *Validator) MaxLength(field string, value string, n int) {
	v.Check(utf8.RuneCountInString(value) <= n, field, fmt.Sprintf("must not be more than %d characters long", n))
}

// Positive checks that an amount in minor units is above zero
func (v *Validator) Positive(field string, value int64) {
	v.Check(value > 0, field, "must be positive")
}

// UPIID validates a UPI virtual payment address
func (v *Validator) UPIID(field, value string) {
	v.Check(IsUPIID(value), field, "must be a valid UPI id (handle@provider)")
}

func IsUPIID(value string) bool {
	return upiRegex.MatchString(strings.TrimSpace(value))
}

// Error joins the collected errors in field order.
func (v *Validator) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, field := range sortedKeys(v.Errors) {
		parts = append(parts, field+" "+v.Errors[field])
	}
	return strings.Join(parts, "; ")
}
