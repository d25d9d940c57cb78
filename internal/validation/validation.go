package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailRegex      = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	familyRoleRegex = regexp.MustCompile(`^[A-Z][A-Z_]{0,31}$`)
)

const (
	MaxNameLength    = 50
	MaxContentLength = 300
)

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

// ValidateName checks a display name such as a family, plant or nickname
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength)}
	}
	return nil
}

// ValidateContent checks the text of a daily post
func ValidateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ValidationError{Field: "content", Message: "content is required"}
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ValidationError{Field: "content", Message: fmt.Sprintf("content must be at most %d characters", MaxContentLength)}
	}
	return nil
}

// ValidateBirthdate checks an optional YYYY-MM-DD date that is not in the
// future
func ValidateBirthdate(birthdate string, now time.Time) error {
	if birthdate == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", birthdate)
	if err != nil {
		return ValidationError{Field: "birthdate", Message: "birthdate must be formatted as YYYY-MM-DD"}
	}
	if d.After(now) {
		return ValidationError{Field: "birthdate", Message: "birthdate cannot be in the future"}
	}
	return nil
}

// ValidateFamilyRole checks an optional role label such as MOM or DAD
func ValidateFamilyRole(role string) error {
	if role == "" {
		return nil
	}
	if !familyRoleRegex.MatchString(role) {
		return ValidationError{Field: "family_role", Message: "family role must be an upper-case label"}
	}
	return nil
}

// ValidatePoints rejects negative point amounts
func ValidatePoints(amount int) error {
	if amount < 0 {
		return ValidationError{Field: "amount", Message: "amount cannot be negative"}
	}
	return nil
}
