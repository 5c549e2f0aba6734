package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gravadigital/afisha-api/internal/apperrors"
)

// ValidateRequired checks that a field is not blank
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.Validation("%s is required", fieldName)
	}
	return nil
}

// ValidateLengthBetween checks the rune length of a string against inclusive bounds
func ValidateLengthBetween(value string, minLength, maxLength int, fieldName string) error {
	length := utf8.RuneCountInString(value)
	if length < minLength || length > maxLength {
		return apperrors.Validation("%s must be between %d and %d characters long", fieldName, minLength, maxLength)
	}
	return nil
}

// ValidateUUID checks that a string is a valid UUID
func ValidateUUID(value, fieldName string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.Validation("%s must be a valid UUID", fieldName)
	}
	return id, nil
}

// ValidateEmail checks basic email shape
func ValidateEmail(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || !strings.Contains(parts[1], ".") {
		return apperrors.Validation("email must have a valid format")
	}
	return nil
}

// ValidateLeadTime checks that a date is at least lead ahead of now
func ValidateLeadTime(date time.Time, lead time.Duration, fieldName string) error {
	if date.Before(time.Now().Add(lead)) {
		return apperrors.Validation("%s must be at least %s in the future", fieldName, lead)
	}
	return nil
}

// EventValidation contains event-specific field validations
type EventValidation struct{}

// ValidateTitle checks the event title bounds
func (v EventValidation) ValidateTitle(title string) error {
	if err := ValidateRequired(title, "title"); err != nil {
		return err
	}
	return ValidateLengthBetween(title, 3, 120, "title")
}

// ValidateAnnotation checks the event annotation bounds
func (v EventValidation) ValidateAnnotation(annotation string) error {
	if err := ValidateRequired(annotation, "annotation"); err != nil {
		return err
	}
	return ValidateLengthBetween(annotation, 20, 2000, "annotation")
}

// ValidateDescription checks the event description bounds
func (v EventValidation) ValidateDescription(description string) error {
	if err := ValidateRequired(description, "description"); err != nil {
		return err
	}
	return ValidateLengthBetween(description, 20, 7000, "description")
}

// ValidateParticipantLimit checks that the limit is not negative.
// Zero means unlimited.
func (v EventValidation) ValidateParticipantLimit(limit int) error {
	if limit < 0 {
		return apperrors.Validation("participant limit cannot be negative")
	}
	return nil
}

// UserValidation contains user-specific field validations
type UserValidation struct{}

// ValidateUserName checks the user name bounds
func (v UserValidation) ValidateUserName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	return ValidateLengthBetween(name, 2, 250, "name")
}

// ValidateUserEmail checks the user email
func (v UserValidation) ValidateUserEmail(email string) error {
	if err := ValidateRequired(email, "email"); err != nil {
		return err
	}
	return ValidateEmail(email)
}

// CategoryValidation contains category-specific field validations
type CategoryValidation struct{}

// ValidateCategoryName checks the category name bounds
func (v CategoryValidation) ValidateCategoryName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	return ValidateLengthBetween(name, 1, 50, "name")
}
