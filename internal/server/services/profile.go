package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/dbx"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/guard"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/onboarding"
	"github.com/dmitrijs2005/medauth/internal/server/policy"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/repomanager"
)

// CompleteProfileRequest is the onboarding form shown to federated users
// whose profile is missing required fields.
type CompleteProfileRequest struct {
	FirstName string
	LastName  string
	Phone     string
	Country   string
}

type CompleteProfileResult struct {
	Profile  *models.Profile
	Redirect onboarding.Redirect
}

// ProfileService fills in the fields a federated sign-in could not supply.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    IdentityProvider
	logger      logging.Logger
	isNewSignup onboarding.NewSignupFunc
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, p IdentityProvider, window time.Duration, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		provider:    p,
		logger:      logger.With("module", "profile"),
		isNewSignup: onboarding.WindowHeuristic(window),
		now:         time.Now,
	}
}

// CompleteProfile validates the form, checks the phone number against every
// other profile and saves it in one transaction. The provider's user
// metadata is then updated to match; a failure there is logged only, since
// the profile row is the source of truth.
func (s *ProfileService) CompleteProfile(ctx context.Context, accessToken string, req CompleteProfileRequest) (*CompleteProfileResult, error) {
	identity, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, common.ErrorUnauthorized
	}

	first := policy.NormalizeName(req.FirstName)
	last := policy.NormalizeName(req.LastName)
	phone := policy.NormalizePhone(req.Phone)
	country := policy.NormalizeCountry(req.Country)

	var msgs []string
	if err := policy.ValidateName("First name", first); err != nil {
		msgs = append(msgs, err.Error())
	}
	if err := policy.ValidateName("Last name", last); err != nil {
		msgs = append(msgs, err.Error())
	}
	if phone == "" {
		msgs = append(msgs, "Phone number is required")
	} else if err := policy.ValidatePhone(phone); err != nil {
		msgs = append(msgs, err.Error())
	}
	if country == "" {
		msgs = append(msgs, "Country is required")
	}
	if err := common.NewValidationError(msgs...); err != nil {
		return nil, err
	}

	var profile *models.Profile
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)

		if err := guard.New(repo, s.logger).EnsurePhoneAvailableFor(ctx, phone, identity.ID); err != nil {
			return guardError("phone", err)
		}

		upd := models.ProfileUpdate{FirstName: &first, LastName: &last, Phone: &phone, Country: &country}
		if err := repo.UpdateProfile(ctx, identity.ID, upd); err != nil {
			if errors.Is(err, common.ErrUniqueViolation) {
				return &common.FieldError{Field: "phone", Err: common.ErrAlreadyRegistered}
			}
			return fmt.Errorf("update profile: %w", err)
		}

		var err error
		profile, err = repo.GetProfile(ctx, identity.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{
		metaFirstName: first,
		metaLastName:  last,
		metaPhone:     phone,
		metaCountry:   country,
	}
	if err := s.provider.UpdateUser(ctx, accessToken, metadata); err != nil {
		s.logger.Error(ctx, "mirroring profile to provider failed", "user_id", identity.ID, "error", err)
	}

	s.logger.Info(ctx, "profile completed", "user_id", identity.ID)

	role := profile.Role
	if role == "" {
		role = identity.Role
	}
	return &CompleteProfileResult{
		Profile:  profile,
		Redirect: onboarding.Destination(role, s.isNewSignup(identity.CreatedAt, s.now())),
	}, nil
}
