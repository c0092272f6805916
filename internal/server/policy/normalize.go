package policy

import (
	"errors"
	"strings"
	"unicode"
)

// NormalizeEmail lowercases and trims s. Blank input yields "".
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone strips whitespace, dots, hyphens and parentheses. No
// country code is inferred: a number without a leading "+" is returned as
// typed, minus the separators. Blank input yields "".
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(".-()", r) {
			return -1
		}
		return r
	}, s)
}

// ValidatePhone checks an already normalized number: an optional leading
// "+" followed by 7 to 15 digits.
func ValidatePhone(phone string) error {
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return errors.New("Phone number must have between 7 and 15 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return errors.New("Phone number may only contain digits")
		}
	}
	return nil
}
