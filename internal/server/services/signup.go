package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/guard"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/policy"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/medauth/internal/server/services"

// SignupRequest is the raw signup form. Phone and Role are optional.
type SignupRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Country   string
	Phone     string
	Role      string
	// Flow ties the confirmation link to the requesting browser.
	Flow provider.Flow
}

// SignupResult is returned once the provider accepted the new identity.
// ConfirmationPending is true when the provider is waiting for the user to
// click the confirmation email.
type SignupResult struct {
	Identity            *models.Identity
	Email               string
	ConfirmationPending bool
}

type SignupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    IdentityProvider
	tracer      trace.Tracer
	logger      logging.Logger
}

func NewSignupService(db *sql.DB, m repomanager.RepositoryManager, p IdentityProvider, logger logging.Logger) *SignupService {
	return &SignupService{
		db:          db,
		repomanager: m,
		provider:    p,
		tracer:      otel.Tracer(tracerName),
		logger:      logger.With("module", "signup"),
	}
}

// Signup validates the form, runs the uniqueness guard and creates the
// identity through the provider. Nothing is created unless every check
// passes. Errors:
//   - *common.ValidationError for any policy violation (all of them at once)
//   - *common.FieldError wrapping common.ErrAlreadyRegistered
//   - common.ErrGuardUnavailable when availability could not be verified
//   - common.ErrRegisteredMomentsAgo when the provider hit a uniqueness race
//   - *common.UpstreamProviderError for any other provider failure
func (s *SignupService) Signup(ctx context.Context, req SignupRequest) (res *SignupResult, err error) {
	ctx, span := s.tracer.Start(ctx, "signup")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "signup failed")
		}
		span.End()
	}()

	in := normalizeSignup(req)
	span.SetAttributes(attribute.String("medauth.role", string(in.Role)))

	if err := validateSignup(in, req.Password); err != nil {
		return nil, err
	}

	g := guard.New(s.repomanager.Profiles(s.db), s.logger)

	if err := g.EnsureEmailAvailable(ctx, in.Email); err != nil {
		return nil, guardError("email", err)
	}
	if in.Phone != "" {
		if err := g.EnsurePhoneAvailable(ctx, in.Phone); err != nil {
			return nil, guardError("phone", err)
		}
	}

	metadata := map[string]any{
		metaFirstName:  in.FirstName,
		metaLastName:   in.LastName,
		metaCountry:    in.Country,
		metaRole:       string(in.Role),
		metaAuthMethod: string(models.AuthMethodPassword),
	}
	if in.Phone != "" {
		metadata[metaPhone] = in.Phone
	}

	created, err := s.provider.SignUp(ctx, in.Email, req.Password, metadata, req.Flow)
	if err != nil {
		if errors.Is(err, common.ErrUniqueViolation) {
			s.logger.Warn(ctx, "identity taken between guard and creation", "error", err)
			return nil, fmt.Errorf("%w: %w", common.ErrRegisteredMomentsAgo, err)
		}
		s.logger.Error(ctx, "provider signup failed", "error", err)
		return nil, err
	}

	res = &SignupResult{Identity: created.Identity, Email: in.Email, ConfirmationPending: created.Session == nil}
	if created.Identity != nil {
		s.logger.Info(ctx, "identity created", "user_id", created.Identity.ID, "role", in.Role)
	}
	return res, nil
}

// Resend asks the provider to send the confirmation email again. The new
// link is bound to flow, so it works in the browser that asked for it.
func (s *SignupService) Resend(ctx context.Context, email string, flow provider.Flow) error {
	email = policy.NormalizeEmail(email)
	if email == "" {
		return common.NewValidationError("Email is required")
	}
	if err := s.provider.ResendConfirmation(ctx, email, flow); err != nil {
		s.logger.Error(ctx, "resend confirmation failed", "error", err)
		return err
	}
	return nil
}

// Availability is an advisory pre-check for signup forms. Signup always
// re-runs the guard, so a stale "available" here is harmless.
type Availability struct {
	EmailTaken bool
	PhoneTaken bool
}

// CheckAvailability returns common.ErrGuardUnavailable instead of guessing
// when the store cannot answer.
func (s *SignupService) CheckAvailability(ctx context.Context, email, phone string) (*Availability, error) {
	g := guard.New(s.repomanager.Profiles(s.db), s.logger)
	res := &Availability{}

	if email = policy.NormalizeEmail(email); email != "" {
		taken, err := g.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		res.EmailTaken = taken
	}
	if phone = policy.NormalizePhone(phone); phone != "" {
		taken, err := g.PhoneExists(ctx, phone)
		if err != nil {
			return nil, err
		}
		res.PhoneTaken = taken
	}
	return res, nil
}

type signupInput struct {
	Email     string
	FirstName string
	LastName  string
	Country   string
	Phone     string
	Role      models.Role
}

func normalizeSignup(req SignupRequest) signupInput {
	return signupInput{
		Email:     policy.NormalizeEmail(req.Email),
		FirstName: policy.NormalizeName(req.FirstName),
		LastName:  policy.NormalizeName(req.LastName),
		Country:   policy.NormalizeCountry(req.Country),
		Phone:     policy.NormalizePhone(req.Phone),
		Role:      models.ParseRole(req.Role),
	}
}

// validateSignup collects every violation so the form can show all of them.
// The password is checked as typed; it is never normalized.
func validateSignup(in signupInput, password string) error {
	var msgs []string

	if in.Email == "" {
		msgs = append(msgs, "Email is required")
	} else if d := policy.ValidateEmailDomain(in.Email); !d.Valid {
		msgs = append(msgs, d.Error)
	}

	msgs = append(msgs, policy.ValidatePassword(password).Errors...)

	if err := policy.ValidateName("First name", in.FirstName); err != nil {
		msgs = append(msgs, err.Error())
	}
	if err := policy.ValidateName("Last name", in.LastName); err != nil {
		msgs = append(msgs, err.Error())
	}
	if in.Country == "" {
		msgs = append(msgs, "Country is required")
	}
	if in.Phone != "" {
		if err := policy.ValidatePhone(in.Phone); err != nil {
			msgs = append(msgs, err.Error())
		}
	}

	return common.NewValidationError(msgs...)
}

func guardError(field string, err error) error {
	if errors.Is(err, common.ErrAlreadyRegistered) {
		return &common.FieldError{Field: field, Err: err}
	}
	return err
}
