package store

import (
	"regexp"

	"cancelflow-be/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const reasonMaxLen = 1000

var reasonPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!?()]+$`)

// ValidateReason enforces the cancellation reason grammar: 1-1000 chars,
// constrained character set. Invalid input is rejected, never truncated.
func ValidateReason(reason string) error {
	if reason == "" {
		return apperr.NewValidation("reason", "Reason is required.")
	}
	if len(reason) > reasonMaxLen {
		return apperr.NewValidation("reason", "Must be no more than 1000 characters.")
	}
	if !reasonPattern.MatchString(reason) {
		return apperr.NewValidation("reason", "Invalid characters in reason.")
	}
	return nil
}

func validateContactAddress(addr string) error {
	if err := validate.Var(addr, "required,email,max=255"); err != nil {
		return apperr.NewValidation("contactAddress", "Invalid email format.")
	}
	return nil
}
