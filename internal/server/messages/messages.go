// Package messages holds every string medauth shows to an end user.
// Provider and store errors are mapped onto these and never surfaced raw.
package messages

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/server/models"
)

const (
	InvalidLink         = "This sign-in link is invalid. Please request a new one."
	ExpiredOrInvalid    = "This sign-in link has expired or is invalid. Please request a new one."
	PKCECrossBrowser    = "Please open the sign-in link in the same browser you used to sign up, or request a new link from this browser."
	ValidationFailed    = "Please correct the highlighted fields and try again."
	SignInNotValidated  = "We could not validate your sign-in. Please try again."
	ProviderSignInError = "We could not sign you in with that provider. Please try again."
	SignInCancelled     = "Sign-in was cancelled."

	AlreadyAssociated    = "This %s is already associated with an account."
	CouldNotVerify       = "We could not verify your details right now. Please retry in a moment."
	RegisteredMomentsAgo = "This account was registered moments ago. Please sign in."
	SignupFailed         = "We could not create your account. Please try again."
	ResendFailed         = "We could not resend the confirmation email. Please try again."
	UpdateFailed         = "We could not save your profile. Please try again."
	Unauthorized         = "Your session has expired. Please sign in again."
	ProfileNotReady      = "Your account is still being set up. Please try again in a moment."

	UsePassword = "An account with this email already exists. Please use your password to sign in."
	UseProvider = "You signed up with %s. Please continue with %s."
)

// Conflict returns the login message for a sign-in blocked because the
// account was established with stored.
func Conflict(stored models.AuthMethod) string {
	if stored.IsFederated() {
		name := stored.DisplayName()
		return fmt.Sprintf(UseProvider, name, name)
	}
	return UsePassword
}

// AlreadyRegistered names the identifier that collided ("email" or
// "phone number").
func AlreadyRegistered(field string) string {
	return fmt.Sprintf(AlreadyAssociated, field)
}

// ForError translates an error returned by a medauth service into the single
// message shown to the user.
func ForError(err error) string {
	var (
		verr *common.ValidationError
		ferr *common.FieldError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, common.ErrAlreadyRegistered) && errors.As(err, &ferr):
		return AlreadyRegistered(fieldLabel(ferr.Field))
	case errors.Is(err, common.ErrGuardUnavailable):
		return CouldNotVerify
	case errors.Is(err, common.ErrRegisteredMomentsAgo):
		return RegisteredMomentsAgo
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return Unauthorized
	case errors.Is(err, common.ErrorNotFound):
		return ProfileNotReady
	default:
		return SignupFailed
	}
}

func fieldLabel(field string) string {
	if field == "phone" {
		return "phone number"
	}
	return field
}

// ForProviderError picks the message for an error redirect from the provider
// (the error query parameter). Provider descriptions are never echoed.
func ForProviderError(code string) string {
	if code == "access_denied" {
		return SignInCancelled
	}
	return ProviderSignInError
}
