package policy

import "unicode"

const MinPasswordLength = 8

// Password rule messages, in the order they are reported.
const (
	PasswordTooShort  = "Password must be at least 8 characters long"
	PasswordNoUpper   = "Password must contain an uppercase letter"
	PasswordNoLower   = "Password must contain a lowercase letter"
	PasswordNoDigit   = "Password must contain a number"
	PasswordNoSpecial = "Password must contain a special character"
)

type PasswordResult struct {
	Valid  bool
	Errors []string
}

// ValidatePassword reports every violated rule, not just the first, so the
// caller can render the full checklist.
func ValidatePassword(pw string) PasswordResult {
	var upper, lower, digit, special bool
	length := 0
	for _, r := range pw {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	var errs []string
	if length < MinPasswordLength {
		errs = append(errs, PasswordTooShort)
	}
	if !upper {
		errs = append(errs, PasswordNoUpper)
	}
	if !lower {
		errs = append(errs, PasswordNoLower)
	}
	if !digit {
		errs = append(errs, PasswordNoDigit)
	}
	if !special {
		errs = append(errs, PasswordNoSpecial)
	}

	return PasswordResult{Valid: len(errs) == 0, Errors: errs}
}
