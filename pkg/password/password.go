// Package password validates user-supplied passwords at registration.
package password

import (
	"fmt"
	"unicode"

	"vaultdrop-backend/pkg/constants"
)

// Validate checks a candidate password against the registration policy:
// minimum length plus at least one letter and one digit.
func Validate(candidate string) error {
	if len(candidate) < constants.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", constants.MinPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}

	return nil
}
