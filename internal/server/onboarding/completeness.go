package onboarding

import (
	"strings"

	"github.com/dmitrijs2005/medauth/internal/server/models"
)

// Required onboarding fields for federated sign-ins.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldPhone     = "phone"
	FieldCountry   = "country"
)

type Completeness struct {
	Complete bool
	Missing  []string
}

// CheckCompleteness only applies to federated sign-ins; password signups
// collect every field on the signup form and are always complete. A missing
// profile counts as missing every field.
func CheckCompleteness(p *models.Profile, method models.AuthMethod) Completeness {
	if !method.IsFederated() {
		return Completeness{Complete: true}
	}

	if p == nil {
		return Completeness{Missing: []string{FieldFirstName, FieldLastName, FieldPhone, FieldCountry}}
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{FieldFirstName, p.FirstName},
		{FieldLastName, p.LastName},
		{FieldPhone, p.Phone},
		{FieldCountry, p.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	return Completeness{Complete: len(missing) == 0, Missing: missing}
}
