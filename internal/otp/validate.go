// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp

import "errors"

// CodeLength is the number of digits in a delivered code.
const CodeLength = 6

// Local shape validation errors, checked in priority order by
// ValidateCode. The texts are shown verbatim next to the input field.
var (
	ErrCodeRequired = errors.New("OTP is required")
	ErrCodeLength   = errors.New("OTP must be 6 digits")
	ErrCodeDigits   = errors.New("OTP must contain only numbers")
)

// ValidateCode checks the shape of a user-entered code: present, exactly
// six characters, digits only. The first failing rule wins.
func ValidateCode(code string) error {
	if code == "" {
		return ErrCodeRequired
	}
	if len(code) != CodeLength {
		return ErrCodeLength
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrCodeDigits
		}
	}
	return nil
}
