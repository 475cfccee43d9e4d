// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package phone normalizes phone numbers to E.164 with the platform's
// default country prefix.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// DefaultPrefix is the country calling code applied when the input
// carries none. The platform currently operates in India only.
const DefaultPrefix = "+91"

// e164 matches an E.164-style number without a leading zero.
var e164 = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ErrInvalid is returned for inputs that cannot be normalized to a
// valid E.164 number.
var ErrInvalid = errors.New("invalid phone number")

// Normalize strips formatting characters, ensures the default country
// prefix is present exactly once and validates the result.
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", ErrInvalid
	}

	digits := strings.TrimPrefix(cleaned, "+")

	// Strip any partial or full default prefix so it is never doubled.
	bare := strings.TrimLeft(DefaultPrefix, "+")
	if strings.HasPrefix(digits, bare) && len(digits) > len(bare) {
		digits = digits[len(bare):]
	}
	digits = strings.TrimLeft(digits, "0")

	normalized := DefaultPrefix + digits
	if !e164.MatchString(normalized) {
		return "", ErrInvalid
	}
	return normalized, nil
}
