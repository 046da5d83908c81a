package service

import (
	"regexp"
	"strings"

	"citylog/internal/common"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\- ]{8,14}$`)
)

func validateName(field, value string) error {
	if len(value) < 2 {
		return common.NewError(common.ErrValidation, field+" should not be less than 2 characters")
	}
	if len(value) > 50 {
		return common.NewError(common.ErrValidation, field+" should not be more than 50 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return common.NewError(common.ErrValidation, "Invalid email! Please provide a valid email address")
	}
	return nil
}

func validatePhoneNumber(phone string) error {
	if !phonePattern.MatchString(phone) {
		return common.NewError(common.ErrValidation, "Invalid phone number! Please provide a valid phone number")
	}
	return nil
}

// 72 bytes is the bcrypt input limit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return common.NewError(common.ErrValidation, "Password should contain at least 8 characters")
	}
	if len(password) > 72 {
		return common.NewError(common.ErrValidation, "Password should not be more than 72 characters")
	}
	return nil
}

func validatePasswordPair(password, confirmPassword string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if password != confirmPassword {
		return common.NewError(common.ErrValidation, "Passwords are not same")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
