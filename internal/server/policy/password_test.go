package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		want []string
	}{
		{
			name: "empty violates every rule",
			pw:   "",
			want: []string{PasswordTooShort, PasswordNoUpper, PasswordNoLower, PasswordNoDigit, PasswordNoSpecial},
		},
		{
			// Four rules, not five: "abc" satisfies the lowercase rule.
			name: "short lowercase only",
			pw:   "abc",
			want: []string{PasswordTooShort, PasswordNoUpper, PasswordNoDigit, PasswordNoSpecial},
		},
		{
			name: "long but no classes besides lower",
			pw:   "abcdefghij",
			want: []string{PasswordNoUpper, PasswordNoDigit, PasswordNoSpecial},
		},
		{
			name: "missing special",
			pw:   "Abcdefg1",
			want: []string{PasswordNoSpecial},
		},
		{
			name: "seven characters otherwise fine",
			pw:   "Abcde1!",
			want: []string{PasswordTooShort},
		},
		{
			name: "minimal valid",
			pw:   "Abcdef1!",
			want: nil,
		},
		{
			name: "unicode letters count",
			pw:   "Ärztin#2026",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.pw)
			assert.Equal(t, tt.want, got.Errors)
			assert.Equal(t, len(tt.want) == 0, got.Valid)
		})
	}
}

func TestValidatePassword_ReportsAllViolations(t *testing.T) {
	got := ValidatePassword("abc")
	assert.False(t, got.Valid)
	assert.Contains(t, got.Errors, PasswordTooShort)
	// Length, upper, digit and special fail. Lowercase is satisfied, so
	// five is only reachable with no lowercase letter at all (see "").
	assert.Len(t, got.Errors, 4, "every violated rule is reported, not only the first")
}
