package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/server/auth"
	"github.com/dmitrijs2005/medauth/internal/server/messages"
	"github.com/dmitrijs2005/medauth/internal/server/onboarding"
	"github.com/dmitrijs2005/medauth/internal/server/services"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
}

type signupResponse struct {
	UserID              string `json:"user_id,omitempty"`
	Email               string `json:"email"`
	ConfirmationPending bool   `json:"confirmation_pending"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type availabilityResponse struct {
	EmailTaken bool `json:"email_taken"`
	PhoneTaken bool `json:"phone_taken"`
}

type completeProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

type completeProfileResponse struct {
	Redirect string `json:"redirect"`
}

// handleCallback always answers with a redirect; failures carry their
// message in the query string of the login page.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := s.resolver.Resolve(r.Context(), services.CallbackInput{
		Code:             q.Get("code"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		CodeVerifier:     s.readVerifier(r),
	})

	// The verifier is single use whatever happened.
	s.clearVerifierCookie(w)
	switch {
	case out.ClearSession:
		s.clearSessionCookies(w)
	case out.Session.Valid():
		s.setSessionCookies(w, out.Session, s.clock())
	}

	http.Redirect(w, r, s.absolute(out.Redirect), http.StatusFound)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// The confirmation email links back to /auth/callback with a PKCE code,
	// which only exchanges with this browser's verifier.
	verifier, flow, err := s.newFlow()
	if err != nil {
		s.writeFlowError(w, r, err)
		return
	}

	res, err := s.signup.Signup(r.Context(), services.SignupRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		Phone:     req.Phone,
		Role:      req.Role,
		Flow:      flow,
	})
	if err != nil {
		s.writeError(w, r, err, messages.SignupFailed)
		return
	}
	s.setVerifierCookie(w, verifier)

	resp := signupResponse{Email: res.Email, ConfirmationPending: res.ConfirmationPending}
	if res.Identity != nil {
		resp.UserID = res.Identity.ID
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	verifier, flow, err := s.newFlow()
	if err != nil {
		s.writeFlowError(w, r, err)
		return
	}
	if err := s.signup.Resend(r.Context(), req.Email, flow); err != nil {
		s.writeError(w, r, err, messages.ResendFailed)
		return
	}
	s.setVerifierCookie(w, verifier)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email, phone := strings.TrimSpace(q.Get("email")), strings.TrimSpace(q.Get("phone"))
	if email == "" && phone == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email or phone is required"})
		return
	}

	res, err := s.signup.CheckAvailability(r.Context(), email, phone)
	if err != nil {
		s.writeError(w, r, err, messages.CouldNotVerify)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{EmailTaken: res.EmailTaken, PhoneTaken: res.PhoneTaken})
}

func (s *Server) handleCompleteProfile(w http.ResponseWriter, r *http.Request) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		s.writeError(w, r, err, messages.Unauthorized)
		return
	}

	var req completeProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.profile.CompleteProfile(r.Context(), token, services.CompleteProfileRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Country:   req.Country,
	})
	if err != nil {
		s.writeError(w, r, err, messages.UpdateFailed)
		return
	}
	writeJSON(w, http.StatusOK, completeProfileResponse{Redirect: s.absolute(res.Redirect)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) absolute(r onboarding.Redirect) string {
	return s.config.SiteURL + r.String()
}

// writeError maps err onto a status code and a fixed user message. fallback
// is used for errors that have no specific message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		verr  *common.ValidationError
		upErr *common.UpstreamProviderError
	)

	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: messages.ValidationFailed, Messages: verr.Messages})
		return
	case errors.Is(err, common.ErrAlreadyRegistered), errors.Is(err, common.ErrRegisteredMomentsAgo):
		status, msg = http.StatusConflict, messages.ForError(err)
	case errors.Is(err, common.ErrGuardUnavailable), errors.Is(err, common.ErrorNotFound):
		status, msg = http.StatusServiceUnavailable, messages.ForError(err)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, messages.Unauthorized
	case errors.As(err, &upErr):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
