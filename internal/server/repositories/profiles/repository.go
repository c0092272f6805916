package profiles

import (
	"context"

	"github.com/dmitrijs2005/medauth/internal/server/models"
)

// Repository is the profile store as seen by medauth. GetProfile returns
// common.ErrorNotFound while the asynchronously provisioned row is absent.
type Repository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error
	RecordAuthMethod(ctx context.Context, id string, method models.AuthMethod) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	PhoneExistsExcludingSelf(ctx context.Context, phone, ownerID string) (bool, error)
	Ping(ctx context.Context) error
}
