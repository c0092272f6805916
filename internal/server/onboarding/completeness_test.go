package onboarding

import (
	"testing"

	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func completeProfile() *models.Profile {
	return &models.Profile{
		ID: "u-1", FirstName: "Ann", LastName: "Lee", Phone: "+15550100", Country: "US",
	}
}

func TestCheckCompleteness_FederatedMissingPhone(t *testing.T) {
	p := completeProfile()
	p.Phone = ""

	got := CheckCompleteness(p, models.AuthMethodGoogle)
	assert.False(t, got.Complete)
	assert.Equal(t, []string{FieldPhone}, got.Missing)

	p.Phone = "+15550100"
	got = CheckCompleteness(p, models.AuthMethodGoogle)
	assert.True(t, got.Complete)
	assert.Empty(t, got.Missing)
}

func TestCheckCompleteness_BlankCountsAsMissing(t *testing.T) {
	p := &models.Profile{FirstName: "  ", LastName: "Lee"}

	got := CheckCompleteness(p, models.AuthMethodApple)
	assert.False(t, got.Complete)
	assert.Equal(t, []string{FieldFirstName, FieldPhone, FieldCountry}, got.Missing)
}

func TestCheckCompleteness_NilProfile(t *testing.T) {
	got := CheckCompleteness(nil, models.AuthMethodGoogle)
	assert.False(t, got.Complete)
	assert.Len(t, got.Missing, 4)
}

func TestCheckCompleteness_PasswordNotApplicable(t *testing.T) {
	assert.True(t, CheckCompleteness(nil, models.AuthMethodPassword).Complete)
	assert.True(t, CheckCompleteness(&models.Profile{}, models.AuthMethodPassword).Complete)
}
