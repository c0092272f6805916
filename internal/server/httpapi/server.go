// Package httpapi is medauth's browser-facing HTTP surface: the provider
// callback, signup and the onboarding form.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/dmitrijs2005/medauth/internal/server/services"
)

type CallbackResolver interface {
	Resolve(ctx context.Context, in services.CallbackInput) *services.Outcome
}

type SignupService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*services.SignupResult, error)
	Resend(ctx context.Context, email string, flow provider.Flow) error
	CheckAvailability(ctx context.Context, email, phone string) (*services.Availability, error)
}

type ProfileService interface {
	CompleteProfile(ctx context.Context, accessToken string, req services.CompleteProfileRequest) (*services.CompleteProfileResult, error)
}

// Pinger reports whether the profile store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	// SiteURL is prepended to every redirect path.
	SiteURL            string
	CodeVerifierCookie string
	SecureCookies      bool
	// AuthorizeURL is the provider's federated sign-in entry point.
	AuthorizeURL string
}

type Server struct {
	config   Config
	resolver CallbackResolver
	signup   SignupService
	profile  ProfileService
	health   Pinger
	logger   logging.Logger
	clock    func() time.Time
}

func NewServer(cfg Config, resolver CallbackResolver, signup SignupService, profile ProfileService, health Pinger, logger logging.Logger) *Server {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Server{
		config:   cfg,
		resolver: resolver,
		signup:   signup,
		profile:  profile,
		health:   health,
		logger:   logger.With("module", "httpapi"),
		clock:    time.Now,
	}
}

// RegisterRoutes registers every medauth endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/authorize", s.handleAuthorize)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("POST /auth/signup", s.handleSignup)
	mux.HandleFunc("POST /auth/resend", s.handleResend)
	mux.HandleFunc("GET /auth/availability", s.handleAvailability)
	mux.HandleFunc("POST /auth/complete-profile", s.handleCompleteProfile)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return RequestLogger(s.logger)(mux)
}
