package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Ann.Lee@Example.COM ", "ann.lee@example.com"},
		{"x@example.com", "x@example.com"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in), "input %q", tt.in)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+1 (555) 010-0000", "+15550100000"},
		{"+44 20.7946.0958", "+442079460958"},
		{"555-0100", "5550100"},
		{"(020) 7946 0958", "02079460958"},
		{" \t ", ""},
		{"555\u00a0-", "555"},
		{"5550100\f)", "5550100"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestNormalizers_AreIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "ANN@EXAMPLE.COM", "  mixed.Case+tag@Sub.Example.org\t",
		"+1 (555) 010-0000", "(020) 7946 0958", "555.0100", "++--..()", "ünïcödé@ÉXAMPLE.de",
		"555\v-", "555\u00a0-", "5550100\f)", "\u2003+1\u00a0555\u200a0100 ",
	}
	for _, in := range inputs {
		e := NormalizeEmail(in)
		assert.Equal(t, e, NormalizeEmail(e), "email %q", in)

		p := NormalizePhone(in)
		assert.Equal(t, p, NormalizePhone(p), "phone %q", in)
	}
}

func TestNormalizeName(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "Ren\u00e9e Smith", NormalizeName("  Rene\u0301e   Smith "))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeCountry(t *testing.T) {
	assert.Equal(t, "US", NormalizeCountry(" us "))
	assert.Equal(t, "United Kingdom", NormalizeCountry(" United   Kingdom"))
	assert.Equal(t, "", NormalizeCountry(""))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("First name", "Anne-Marie"))
	assert.NoError(t, ValidateName("Last name", "O'Neil"))
	assert.NoError(t, ValidateName("Last name", "Zoë St. James"))

	assert.EqualError(t, ValidateName("First name", ""), "First name is required")
	assert.EqualError(t, ValidateName("Last name", "R2D2"), "Last name contains invalid characters")

	long := make([]rune, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateName("First name", string(long)))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("+15550100"))
	assert.NoError(t, ValidatePhone(NormalizePhone("+1 (555) 010-0199")))
	assert.Error(t, ValidatePhone("+123"))
	assert.Error(t, ValidatePhone("+1555abc0100"))
	assert.Error(t, ValidatePhone("+1234567890123456"))
}
