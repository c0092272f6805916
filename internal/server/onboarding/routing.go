package onboarding

import (
	"net/url"
	"time"

	"github.com/dmitrijs2005/medauth/internal/server/models"
)

const (
	LoginPath           = "/login"
	CompleteProfilePath = "/complete-profile"
	SuccessPath         = "/auth/success"

	PatientDashboardPath = "/patient/dashboard"
	DoctorDashboardPath  = "/doctor/dashboard"
	ClinicDashboardPath  = "/clinic/dashboard"
)

// Query parameters understood by the login page.
const (
	QueryError        = "error"
	QueryPKCEError    = "pkce_error"
	QueryAuthConflict = "auth_conflict"
	QueryRedirect     = "redirect"
)

// DefaultNewSignupWindow is how recently an identity must have been created
// for the sign-in to count as the first one.
const DefaultNewSignupWindow = 900 * time.Second

// DashboardPath maps a role to its dashboard. Unknown roles get the patient
// dashboard.
func DashboardPath(role models.Role) string {
	switch role {
	case models.RoleDoctor:
		return DoctorDashboardPath
	case models.RoleClinic:
		return ClinicDashboardPath
	default:
		return PatientDashboardPath
	}
}

// NewSignupFunc decides whether an identity created at createdAt is signing
// in for the first time at now. It is a heuristic: there is no persisted
// "onboarding completed" flag to consult.
type NewSignupFunc func(createdAt, now time.Time) bool

// WindowHeuristic treats identities younger than window as new. An identity
// exactly window old is returning.
func WindowHeuristic(window time.Duration) NewSignupFunc {
	return func(createdAt, now time.Time) bool {
		return now.Sub(createdAt) < window
	}
}

// Redirect is a site-relative destination plus query flags.
type Redirect struct {
	Path  string
	Query url.Values
}

func (r Redirect) String() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Destination routes a resolved sign-in: first-time signups pass through the
// success surface, which forwards to the dashboard; everyone else goes
// straight to the dashboard.
func Destination(role models.Role, isNewSignup bool) Redirect {
	dashboard := DashboardPath(role)
	if isNewSignup {
		return Redirect{Path: SuccessPath, Query: url.Values{QueryRedirect: {dashboard}}}
	}
	return Redirect{Path: dashboard}
}

// CompletionRedirect sends a federated user to the onboarding form.
func CompletionRedirect() Redirect {
	return Redirect{Path: CompleteProfilePath}
}

// LoginRedirect sends the user back to the login page with one message and
// any extra flags (QueryPKCEError, QueryAuthConflict) set to "true".
func LoginRedirect(message string, flags ...string) Redirect {
	q := url.Values{QueryError: {message}}
	for _, f := range flags {
		q.Set(f, "true")
	}
	return Redirect{Path: LoginPath, Query: q}
}
