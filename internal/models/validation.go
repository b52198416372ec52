package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTextLength     = 280
	MinPasswordLength = 5
)

var ErrValidation = errors.New("validation failed")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NormalizeEmail is applied both when an account is created and when it is
// looked up for login.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Normalize trims the user-facing fields in place and validates them.
func (p *CreateUserParams) Normalize(password string) error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = NormalizeEmail(p.Email)

	if p.Username == "" {
		return &ValidationError{Field: "username", Message: "is required"}
	}
	if !emailPattern.MatchString(p.Email) {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

func (p CreateThoughtParams) Validate() error {
	return validateText("thoughtText", p.ThoughtText)
}

func (p CreateReactionParams) Validate() error {
	return validateText("reactionBody", p.ReactionBody)
}

func validateText(field, value string) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if n > MaxTextLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxTextLength)}
	}
	return nil
}
