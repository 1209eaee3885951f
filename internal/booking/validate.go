package booking

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError rejects malformed input before any catalog write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid %s: %s", e.Field, e.Message)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidPhone accepts any number carrying at least 9 digits once formatting
// characters are stripped.
func ValidPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 9
}

// ValidEmail accepts addresses of the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

func validateContact(name, phone, email string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "booking_name", Message: "name is required"}
	}
	if !ValidPhone(phone) {
		return &ValidationError{Field: "phone", Message: "need at least 9 digits, e.g. +36 30 123 4567"}
	}
	if !ValidEmail(email) {
		return &ValidationError{Field: "email", Message: "need a valid address, e.g. anna@example.com"}
	}
	return nil
}
