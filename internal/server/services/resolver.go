package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/auth"
	"github.com/dmitrijs2005/medauth/internal/server/messages"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/onboarding"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is the terminal state a callback resolution ended in.
type State string

const (
	StateErrorFromProvider State = "ERROR_FROM_PROVIDER"
	StateNoCode            State = "NO_CODE"
	StateExchangeFailed    State = "EXCHANGE_FAILED"
	StateExchangedNoUser   State = "EXCHANGED_NO_USER"
	StateConflictBlocked   State = "CONFLICT_BLOCKED"
	StateIncomplete        State = "INCOMPLETE"
	StateNewSignup         State = "NEW_SIGNUP_REDIRECT"
	StateReturningLogin    State = "RETURNING_LOGIN_REDIRECT"
)

// ExchangeFailure classifies a failed code exchange for the user message.
type ExchangeFailure string

const (
	FailurePKCECrossBrowser ExchangeFailure = "pkce_cross_browser"
	FailureExpiredOrInvalid ExchangeFailure = "generic_expired_or_invalid"
)

var pkceSignature = regexp.MustCompile(`(?i)code[ _-]?verifier|pkce`)

// ClassifyExchangeFailure reports FailurePKCECrossBrowser when the provider
// complained about the PKCE verifier, which happens when the link is opened
// in a browser other than the one that started the flow.
func ClassifyExchangeFailure(err error) ExchangeFailure {
	if err == nil {
		return FailureExpiredOrInvalid
	}
	var upErr *common.UpstreamProviderError
	if errors.As(err, &upErr) {
		if pkceSignature.MatchString(upErr.Code) || pkceSignature.MatchString(upErr.Message) {
			return FailurePKCECrossBrowser
		}
		return FailureExpiredOrInvalid
	}
	if pkceSignature.MatchString(err.Error()) {
		return FailurePKCECrossBrowser
	}
	return FailureExpiredOrInvalid
}

// errMissingVerifier stands in for the provider's answer when the browser
// has no verifier cookie at all.
var errMissingVerifier = errors.New("code verifier missing from this browser")

// CallbackInput is what the browser brought back from the provider.
type CallbackInput struct {
	Code             string
	Error            string
	ErrorDescription string
	CodeVerifier     string
}

// Outcome is the single redirect a callback ends in.
//
// Session is set when the browser should keep the provider session.
// ClearSession is set when session cookies must be dropped because the
// session was revoked.
type Outcome struct {
	State        State
	Redirect     onboarding.Redirect
	Session      *models.Session
	ClearSession bool
	UserID       string
	Failure      ExchangeFailure
	Decision     *onboarding.Decision
	// ProfileFound is false when the poll budget ran out.
	ProfileFound bool
	// Err wraps common.ErrPolicyConflict when the sign-in was blocked.
	Err error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResolverOption customizes a CallbackResolver.
type ResolverOption func(*CallbackResolver)

// WithPollBudget sets how many times the profile store is read and the
// delay between reads. There is no delay after the last read.
func WithPollBudget(attempts int, delay time.Duration) ResolverOption {
	return func(r *CallbackResolver) {
		if attempts > 0 {
			r.attempts = attempts
		}
		if delay >= 0 {
			r.delay = delay
		}
	}
}

func WithNewSignupFunc(f onboarding.NewSignupFunc) ResolverOption {
	return func(r *CallbackResolver) { r.isNewSignup = f }
}

func WithClock(now func() time.Time) ResolverOption {
	return func(r *CallbackResolver) { r.now = now }
}

func WithSleep(sleep SleepFunc) ResolverOption {
	return func(r *CallbackResolver) { r.sleep = sleep }
}

// Defaults for the profile poll. Worst case the callback waits
// (attempts-1) * delay for the profile row.
const (
	DefaultPollAttempts = 6
	DefaultPollDelay    = 500 * time.Millisecond
)

// CallbackResolver turns a provider redirect into a session and a
// destination. It holds no per-request state; Resolve may run concurrently.
type CallbackResolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	provider    IdentityProvider
	tracer      trace.Tracer
	logger      logging.Logger

	attempts    int
	delay       time.Duration
	isNewSignup onboarding.NewSignupFunc
	now         func() time.Time
	sleep       SleepFunc
}

func NewCallbackResolver(db *sql.DB, m repomanager.RepositoryManager, p IdentityProvider, logger logging.Logger, opts ...ResolverOption) *CallbackResolver {
	r := &CallbackResolver{
		db:          db,
		repomanager: m,
		provider:    p,
		tracer:      otel.Tracer(tracerName),
		logger:      logger.With("module", "resolver"),
		attempts:    DefaultPollAttempts,
		delay:       DefaultPollDelay,
		isNewSignup: onboarding.WindowHeuristic(onboarding.DefaultNewSignupWindow),
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the callback to exactly one terminal outcome. It never
// returns an error: every failure ends in a login redirect with a message.
func (r *CallbackResolver) Resolve(ctx context.Context, in CallbackInput) *Outcome {
	ctx, span := r.tracer.Start(ctx, "callback.resolve")
	defer span.End()

	out := r.resolve(ctx, in)

	span.SetAttributes(attribute.String("medauth.callback.state", string(out.State)))
	r.logger.Info(ctx, "callback resolved", "state", out.State, "user_id", out.UserID, "redirect", out.Redirect.Path)
	return out
}

func (r *CallbackResolver) resolve(ctx context.Context, in CallbackInput) *Outcome {
	if in.Error != "" {
		r.logger.Warn(ctx, "provider returned an error", "error", in.Error, "description", in.ErrorDescription)
		return &Outcome{
			State:    StateErrorFromProvider,
			Redirect: onboarding.LoginRedirect(messages.ForProviderError(in.Error)),
		}
	}

	if in.Code == "" {
		return &Outcome{State: StateNoCode, Redirect: onboarding.LoginRedirect(messages.InvalidLink)}
	}

	exchanged, err := r.exchange(ctx, in)
	if err != nil {
		failure := ClassifyExchangeFailure(err)
		r.logger.Warn(ctx, "code exchange failed", "error", err, "failure", failure)

		redirect := onboarding.LoginRedirect(messages.ExpiredOrInvalid)
		if failure == FailurePKCECrossBrowser {
			redirect = onboarding.LoginRedirect(messages.PKCECrossBrowser, onboarding.QueryPKCEError)
		}
		return &Outcome{State: StateExchangeFailed, Redirect: redirect, Failure: failure}
	}

	identity := exchanged.Identity
	session := exchanged.Session
	if identity == nil || identity.ID == "" {
		return &Outcome{State: StateExchangedNoUser, Redirect: onboarding.LoginRedirect(messages.SignInNotValidated)}
	}

	repo := r.repomanager.Profiles(r.db)

	profile, err := r.pollProfile(ctx, repo, identity.ID)
	if err != nil {
		// Degrade: continue without a profile and fall back to session roles.
		r.logger.Warn(ctx, "profile not available, continuing without it", "user_id", identity.ID, "error", err)
	}

	stored := models.AuthMethodNone
	if profile != nil {
		stored = profile.AuthMethod
	}
	decision := onboarding.DecideConflict(stored, identity.Method)

	if decision.Blocked() {
		r.forceSignOut(ctx, &session, identity.ID)
		conflict := fmt.Errorf("%w: stored %q, attempted %q (%s)", common.ErrPolicyConflict, stored, identity.Method, decision.Reason)
		r.logger.Info(ctx, "sign-in blocked", "user_id", identity.ID, "error", conflict)
		return &Outcome{
			Err:          conflict,
			State:        StateConflictBlocked,
			Redirect:     onboarding.LoginRedirect(messages.Conflict(stored), onboarding.QueryAuthConflict),
			ClearSession: true,
			UserID:       identity.ID,
			Decision:     &decision,
			ProfileFound: profile != nil,
		}
	}
	if decision.Reason == onboarding.ReasonCrossProviderUnverified {
		r.logger.Warn(ctx, "sign-in with a different federated provider allowed",
			"user_id", identity.ID, "stored", stored, "attempted", identity.Method)
	}

	if profile != nil && stored == models.AuthMethodNone && identity.Method != models.AuthMethodNone {
		r.recordMethod(ctx, repo, identity.ID, identity.Method)
	}

	out := &Outcome{Session: &session, UserID: identity.ID, Decision: &decision, ProfileFound: profile != nil}

	if identity.Method.IsFederated() {
		if c := onboarding.CheckCompleteness(profile, identity.Method); !c.Complete {
			r.logger.Debug(ctx, "profile incomplete", "user_id", identity.ID, "missing", c.Missing)
			out.State = StateIncomplete
			out.Redirect = onboarding.CompletionRedirect()
			return out
		}
	}

	isNew := r.isNewSignup(identity.CreatedAt, r.now())
	out.Redirect = onboarding.Destination(r.role(profile, identity, session), isNew)
	out.State = StateReturningLogin
	if isNew {
		out.State = StateNewSignup
	}
	return out
}

func (r *CallbackResolver) exchange(ctx context.Context, in CallbackInput) (*provider.ExchangeResult, error) {
	if in.CodeVerifier == "" {
		return nil, errMissingVerifier
	}
	return r.provider.ExchangeCode(ctx, in.Code, in.CodeVerifier)
}

// pollProfile reads the profile up to r.attempts times, sleeping r.delay
// between reads. The first hit wins. Store errors count as a miss.
func (r *CallbackResolver) pollProfile(ctx context.Context, repo profiles.Repository, id string) (*models.Profile, error) {
	ctx, span := r.tracer.Start(ctx, "callback.poll_profile")
	defer span.End()

	for attempt := 1; attempt <= r.attempts; attempt++ {
		p, err := repo.GetProfile(ctx, id)
		if err == nil {
			span.SetAttributes(attribute.Int("medauth.poll.attempts", attempt))
			return p, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			r.logger.Warn(ctx, "profile read failed", "user_id", id, "attempt", attempt, "error", err)
		}

		if attempt == r.attempts {
			break
		}
		if err := r.sleep(ctx, r.delay); err != nil {
			span.SetAttributes(attribute.Int("medauth.poll.attempts", attempt))
			return nil, fmt.Errorf("%w: %v", common.ErrConsistencyTimeout, err)
		}
	}

	span.SetAttributes(attribute.Int("medauth.poll.attempts", r.attempts))
	return nil, common.ErrConsistencyTimeout
}

// forceSignOut revokes the session before the blocking redirect is sent.
// The caller clears the cookies whether or not revocation succeeded.
func (r *CallbackResolver) forceSignOut(ctx context.Context, session *models.Session, userID string) {
	if !session.Valid() {
		return
	}
	if err := r.provider.SignOut(ctx, session.AccessToken); err != nil {
		r.logger.Error(ctx, "forced sign-out failed", "user_id", userID, "error", err)
		return
	}
	r.logger.Info(ctx, "session revoked after auth method conflict", "user_id", userID)
}

func (r *CallbackResolver) recordMethod(ctx context.Context, repo profiles.Repository, id string, method models.AuthMethod) {
	recorded, err := repo.RecordAuthMethod(ctx, id, method)
	if err != nil {
		r.logger.Error(ctx, "recording auth method failed", "user_id", id, "error", err)
		return
	}
	if recorded {
		r.logger.Info(ctx, "auth method recorded", "user_id", id, "method", method)
	}
}

// role prefers the profile, then the identity's metadata, then the access
// token's claims, then the least privileged role.
func (r *CallbackResolver) role(profile *models.Profile, identity *models.Identity, session models.Session) models.Role {
	if profile != nil && profile.Role != "" {
		return profile.Role
	}
	if identity.Role != "" {
		return identity.Role
	}
	if session.AccessToken != "" {
		if claims, err := auth.ReadClaims(session.AccessToken); err == nil {
			if role := claims.Role(); role != "" {
				return role
			}
		}
	}
	return models.RolePatient
}
