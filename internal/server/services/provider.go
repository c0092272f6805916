// Package services holds the medauth orchestration flows: signup, the
// post-authentication callback resolver and profile completion. Each flow is
// a struct built once at startup with its dependencies; no per-user state
// outlives a call.
package services

import (
	"context"

	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
)

// IdentityProvider is the part of the provider client the flows call.
// *provider.Client implements it.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*provider.ExchangeResult, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any, flow provider.Flow) (*provider.SignUpResult, error)
	ResendConfirmation(ctx context.Context, email string, flow provider.Flow) error
	SignOut(ctx context.Context, accessToken string) error
	UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) error
	GetUser(ctx context.Context, accessToken string) (*models.Identity, error)
}

var _ IdentityProvider = (*provider.Client)(nil)

// Metadata keys written to the provider's user metadata. The profile row is
// seeded from these.
const (
	metaFirstName  = "first_name"
	metaLastName   = "last_name"
	metaCountry    = "country"
	metaPhone      = "phone"
	metaRole       = "role"
	metaAuthMethod = "auth_method"
)
