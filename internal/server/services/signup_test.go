package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/messages"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignupService(t *testing.T) (*SignupService, *fakeProfiles, *fakeProvider) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	store := &fakeProfiles{}
	idp := &fakeProvider{
		signUpRes: &provider.SignUpResult{Identity: &models.Identity{ID: userID, Method: models.AuthMethodPassword}},
	}
	return NewSignupService(db, &fakeRepoManager{p: store}, idp, logging.Nop()), store, idp
}

func validSignup() SignupRequest {
	return SignupRequest{
		Email:     "  New.User@Example.com ",
		Password:  "Abcdef1!",
		FirstName: " Ann ",
		LastName:  "Lee",
		Country:   "us",
		Phone:     "+1 (555) 010-0199",
		Flow:      provider.Flow{CodeChallenge: "challenge", RedirectTo: "https://app.example.com/auth/callback"},
	}
}

func TestSignup_Success(t *testing.T) {
	s, store, idp := newSignupService(t)

	res, err := s.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	assert.True(t, res.ConfirmationPending)
	assert.Equal(t, "new.user@example.com", res.Email)
	assert.Equal(t, userID, res.Identity.ID)

	assert.Equal(t, "new.user@example.com", idp.signUpEmail)
	assert.Equal(t, map[string]any{
		"first_name":  "Ann",
		"last_name":   "Lee",
		"country":     "US",
		"phone":       "+15550100199",
		"role":        "patient",
		"auth_method": "password",
	}, idp.signUpMetadata)
	assert.Equal(t, validSignup().Flow, idp.signUpFlow, "confirmation link must carry the PKCE challenge")

	assert.Equal(t, 1, store.emailCalls)
	assert.Equal(t, 1, store.phoneCalls)
}

func TestSignup_NoPhoneSkipsPhoneGuard(t *testing.T) {
	s, store, idp := newSignupService(t)
	req := validSignup()
	req.Phone = "  "

	_, err := s.Signup(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, store.phoneCalls)
	assert.NotContains(t, idp.signUpMetadata, "phone")
}

func TestSignup_RequestedRole(t *testing.T) {
	s, _, idp := newSignupService(t)
	req := validSignup()

	req.Role = "Doctor"
	_, err := s.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "doctor", idp.signUpMetadata["role"])

	req.Role = "admin"
	_, err = s.Signup(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "patient", idp.signUpMetadata["role"])
}

func TestSignup_ValidationCollectsEverything(t *testing.T) {
	s, store, idp := newSignupService(t)

	_, err := s.Signup(context.Background(), SignupRequest{
		Email:    "user@gmail.co",
		Password: "abc",
		LastName: "R2D2",
	})

	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	// domain + 4 password rules + first name + last name + country
	assert.Len(t, verr.Messages, 8)
	assert.Contains(t, verr.Messages, "First name is required")
	assert.Contains(t, verr.Messages, "Country is required")

	assert.Zero(t, store.emailCalls, "no guard call before validation passes")
	assert.Zero(t, idp.signUpCalls)
}

func TestSignup_EmailTaken(t *testing.T) {
	s, store, idp := newSignupService(t)
	store.emailExists = true

	_, err := s.Signup(context.Background(), validSignup())

	assert.ErrorIs(t, err, common.ErrAlreadyRegistered)
	var fe *common.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)
	assert.Zero(t, idp.signUpCalls)
	assert.Zero(t, store.phoneCalls, "phone is checked after email")
}

func TestSignup_PhoneTaken(t *testing.T) {
	s, store, idp := newSignupService(t)
	store.phoneExists = true

	_, err := s.Signup(context.Background(), validSignup())

	assert.Equal(t, "This phone number is already associated with an account.", messages.ForError(err))
	assert.Zero(t, idp.signUpCalls)
}

func TestSignup_GuardUnavailableFailsClosed(t *testing.T) {
	s, store, idp := newSignupService(t)
	store.existsErr = errors.New("dial tcp: i/o timeout")

	_, err := s.Signup(context.Background(), validSignup())

	assert.ErrorIs(t, err, common.ErrGuardUnavailable)
	assert.NotErrorIs(t, err, common.ErrAlreadyRegistered)
	assert.Equal(t, messages.CouldNotVerify, messages.ForError(err))
	assert.Zero(t, idp.signUpCalls)
}

func TestSignup_RaceAtCreation(t *testing.T) {
	s, _, idp := newSignupService(t)
	idp.signUpErr = fmt.Errorf("%w: %w", common.ErrUniqueViolation,
		&common.UpstreamProviderError{Op: "signup", Status: 422, Code: "user_already_exists"})

	_, err := s.Signup(context.Background(), validSignup())

	assert.ErrorIs(t, err, common.ErrRegisteredMomentsAgo)
	assert.Equal(t, messages.RegisteredMomentsAgo, messages.ForError(err))
}

func TestSignup_ProviderFailure(t *testing.T) {
	s, _, idp := newSignupService(t)
	idp.signUpErr = &common.UpstreamProviderError{Op: "signup", Status: 500, Message: "internal"}

	_, err := s.Signup(context.Background(), validSignup())

	var upErr *common.UpstreamProviderError
	assert.True(t, errors.As(err, &upErr))
	assert.NotErrorIs(t, err, common.ErrRegisteredMomentsAgo)
}

func TestSignup_AutoConfirmed(t *testing.T) {
	s, _, idp := newSignupService(t)
	idp.signUpRes.Session = &models.Session{AccessToken: "at"}

	res, err := s.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	assert.False(t, res.ConfirmationPending)
}

func TestResend(t *testing.T) {
	s, _, idp := newSignupService(t)

	flow := provider.Flow{CodeChallenge: "ch", RedirectTo: "https://app.example.com/auth/callback"}
	require.NoError(t, s.Resend(context.Background(), " A@Example.com", flow))
	assert.Equal(t, "a@example.com", idp.resendEmail)
	assert.Equal(t, flow, idp.resendFlow)

	var verr *common.ValidationError
	assert.True(t, errors.As(s.Resend(context.Background(), " ", flow), &verr))

	idp.resendErr = &common.UpstreamProviderError{Op: "resend", Status: 429}
	assert.Error(t, s.Resend(context.Background(), "a@example.com", flow))
}

func TestCheckAvailability(t *testing.T) {
	s, store, _ := newSignupService(t)
	store.emailExists = true

	res, err := s.CheckAvailability(context.Background(), "a@example.com", "")
	require.NoError(t, err)
	assert.True(t, res.EmailTaken)
	assert.False(t, res.PhoneTaken)
	assert.Zero(t, store.phoneCalls)

	store.existsErr = errors.New("boom")
	_, err = s.CheckAvailability(context.Background(), "a@example.com", "+15550100")
	assert.ErrorIs(t, err, common.ErrGuardUnavailable)
}
