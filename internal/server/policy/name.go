package policy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const MaxNameLength = 100

// NormalizeName trims s, collapses inner whitespace runs to one space and
// converts the result to NFC so visually equal names compare equal.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// ValidateName checks an already normalized name. field is used in the
// message ("First name", "Last name").
func ValidateName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%s must be at most %d characters", field, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.Is(unicode.Mn, r) {
			continue
		}
		switch r {
		case ' ', '\'', '-', '.', '’':
			continue
		}
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// NormalizeCountry trims s and uppercases two-letter codes.
func NormalizeCountry(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	return s
}
