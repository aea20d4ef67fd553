package utils

import (
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateTrackingNumber validates a carrier tracking number. Carriers differ
// in format, so this only rejects obvious garbage.
func ValidateTrackingNumber(tracking string) error {
	if len(tracking) < 8 || len(tracking) > 40 {
		return fmt.Errorf("tracking number length out of range: %s", tracking)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9\-]+$`).MatchString(tracking) {
		return fmt.Errorf("tracking number contains invalid characters: %s", tracking)
	}
	return nil
}

// SanitizeString removes control characters from user-entered text
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
