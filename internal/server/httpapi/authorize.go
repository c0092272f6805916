package httpapi

import (
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/medauth/internal/cryptox"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
)

const (
	callbackPath   = "/auth/callback"
	verifierMaxAge = 600
)

// newFlow creates a PKCE verifier and the provider flow bound to it. The
// verifier goes into a cookie with setVerifierCookie, the flow to the provider.
func (s *Server) newFlow() (string, provider.Flow, error) {
	verifier, err := cryptox.NewCodeVerifier()
	if err != nil {
		return "", provider.Flow{}, err
	}
	return verifier, provider.Flow{
		CodeChallenge: cryptox.CodeChallenge(verifier),
		RedirectTo:    s.config.SiteURL + callbackPath,
	}, nil
}

func (s *Server) setVerifierCookie(w http.ResponseWriter, verifier string) {
	s.setCookie(w, s.config.CodeVerifierCookie, verifier, verifierMaxAge)
}

// handleAuthorize starts a federated sign-in: it stores a fresh PKCE
// verifier in a cookie and sends the browser to the provider with the
// matching challenge. The callback reads the verifier back.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	method := models.ParseAuthMethod(r.URL.Query().Get("provider"))
	if !method.IsFederated() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported provider"})
		return
	}
	if s.config.AuthorizeURL == "" {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "federated sign-in is not configured"})
		return
	}

	verifier, flow, err := s.newFlow()
	if err != nil {
		s.writeFlowError(w, r, err)
		return
	}
	s.setVerifierCookie(w, verifier)

	q := url.Values{}
	q.Set("provider", string(method))
	q.Set("redirect_to", flow.RedirectTo)
	q.Set("code_challenge", flow.CodeChallenge)
	q.Set("code_challenge_method", provider.ChallengeMethodS256)

	http.Redirect(w, r, s.config.AuthorizeURL+"?"+q.Encode(), http.StatusFound)
}

func (s *Server) writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error(r.Context(), "pkce verifier", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}
