package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._\-]{3,50}$`)
)

// DateLayout is the wire and storage format for calendar dates
const DateLayout = "2006-01-02"

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateOptionalEmail accepts an empty value, otherwise behaves like ValidateEmail
func ValidateOptionalEmail(field, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return ValidationError{Field: field, Message: "invalid email format"}
	}
	return nil
}

// ValidateUsername checks login names
func ValidateUsername(username string) error {
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-50 letters, digits, dots, dashes or underscores"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date
func ValidateDate(field, value string) error {
	if value == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateOptionalDate accepts an empty value, otherwise behaves like ValidateDate
func ValidateOptionalDate(field, value string) error {
	if value == "" {
		return nil
	}
	return ValidateDate(field, value)
}

// Required returns an error naming the first empty field. Pairs are field name then value.
func Required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return ValidationError{Field: pairs[i], Message: pairs[i] + " is required"}
		}
	}
	return nil
}

// ValidateDateRange checks both bounds and that start is not after end
func ValidateDateRange(start, end string) error {
	if err := ValidateDate("start_date", start); err != nil {
		return err
	}
	if err := ValidateDate("end_date", end); err != nil {
		return err
	}
	if start > end {
		return ValidationError{Field: "start_date", Message: "start_date must not be after end_date"}
	}
	return nil
}
