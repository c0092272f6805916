package models

import "time"

// Identity is the account entry owned by the identity provider. medauth
// creates it through the provider and reads it back after a code exchange.
type Identity struct {
	ID        string
	Email     string
	Phone     string
	Method    AuthMethod
	Role      Role
	CreatedAt time.Time
	// Metadata is the provider's free-form user metadata (profile seed).
	Metadata map[string]any
}

// MetadataString returns Metadata[key] when it is a string.
func (i *Identity) MetadataString(key string) string {
	if i == nil || i.Metadata == nil {
		return ""
	}
	v, _ := i.Metadata[key].(string)
	return v
}

// Session is an opaque provider capability. medauth only checks for its
// presence, forwards it to the browser, and revokes it on policy conflict.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the session carries an access token.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}
