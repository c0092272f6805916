package provider

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/medauth/internal/server/models"
)

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	CreatedAt    time.Time      `json:"created_at"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u *userResponse) identity() *models.Identity {
	if u == nil || u.ID == "" {
		return nil
	}

	id := &models.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		Metadata:  u.UserMetadata,
	}

	// app_metadata is provider controlled; user_metadata is only a fallback.
	provider, _ := u.AppMetadata["provider"].(string)
	id.Method = models.ParseAuthMethod(provider)
	if id.Method == models.AuthMethodNone {
		id.Method = models.ParseAuthMethod(id.MetadataString("auth_method"))
	}

	role, _ := u.AppMetadata["role"].(string)
	if role == "" {
		role = id.MetadataString("role")
	}
	if role != "" {
		id.Role = models.ParseRole(role)
	}

	return id
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
}

func (t *tokenResponse) session() models.Session {
	s := models.Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// signupResponse is either a session with a nested user (auto-confirm on)
// or the bare user object (confirmation pending).
type signupResponse struct {
	tokenResponse
	userResponse
}

// errorResponse covers both the current ({code, error_code, msg}) and the
// legacy OAuth-style ({error, error_description}) error bodies.
type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) code() string {
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if e.Error != "" {
		return e.Error
	}
	switch v := e.Code.(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	}
	return ""
}

func (e errorResponse) message() string {
	for _, m := range []string{e.Msg, e.Message, e.ErrorDescription} {
		if m != "" {
			return m
		}
	}
	return ""
}
