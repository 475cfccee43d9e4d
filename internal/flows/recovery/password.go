// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package recovery

import (
	"errors"
	"strings"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// Password policy errors, checked in order by ValidatePassword. The
// first failing rule wins.
var (
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooSimple  = errors.New("password must contain an upper case letter, a lower case letter and a number")
	ErrPasswordsDontMatch = errors.New("passwords do not match")
)

// ValidatePassword enforces the complexity policy for a new password.
// The confirmation is only compared once a value has been entered.
func ValidatePassword(password, confirm string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !hasCaseVarietyAndDigit(password) {
		return ErrPasswordTooSimple
	}
	if confirm != "" && confirm != password {
		return ErrPasswordsDontMatch
	}
	return nil
}

func hasCaseVarietyAndDigit(password string) bool {
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// MaskPhone hides all but the last four digits of a phone number for
// display in flow status messages.
func MaskPhone(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
