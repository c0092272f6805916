package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/server/models"
)

const refreshCookieMaxAge = 30 * 24 * time.Hour

func (s *Server) setSessionCookies(w http.ResponseWriter, session *models.Session, now time.Time) {
	accessMaxAge := 0
	if !session.ExpiresAt.IsZero() {
		accessMaxAge = int(session.ExpiresAt.Sub(now).Seconds())
		if accessMaxAge <= 0 {
			accessMaxAge = -1
		}
	}
	s.setCookie(w, common.AccessTokenCookieName, session.AccessToken, accessMaxAge)
	if session.RefreshToken != "" {
		s.setCookie(w, common.RefreshTokenCookieName, session.RefreshToken, int(refreshCookieMaxAge.Seconds()))
	}
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	s.setCookie(w, common.AccessTokenCookieName, "", -1)
	s.setCookie(w, common.RefreshTokenCookieName, "", -1)
}

func (s *Server) clearVerifierCookie(w http.ResponseWriter) {
	s.setCookie(w, s.config.CodeVerifierCookie, "", -1)
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) readVerifier(r *http.Request) string {
	c, err := r.Cookie(s.config.CodeVerifierCookie)
	if err != nil {
		return ""
	}
	return c.Value
}
