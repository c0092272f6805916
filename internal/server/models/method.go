package models

import "strings"

// AuthMethod is the channel through which an account was first established.
// The zero value means the profile has no recorded method yet.
type AuthMethod string

const (
	AuthMethodNone     AuthMethod = ""
	AuthMethodPassword AuthMethod = "password"
	AuthMethodGoogle   AuthMethod = "google"
	AuthMethodApple    AuthMethod = "apple"
)

// AuthMethods lists every concrete method, in a stable order.
var AuthMethods = []AuthMethod{AuthMethodPassword, AuthMethodGoogle, AuthMethodApple}

// IsFederated reports whether m is one of the external identity providers.
func (m AuthMethod) IsFederated() bool {
	return m == AuthMethodGoogle || m == AuthMethodApple
}

// ParseAuthMethod maps the provider's own method names onto AuthMethod.
// The provider reports password accounts as "email". Unknown names map to
// AuthMethodNone.
func ParseAuthMethod(s string) AuthMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "password", "email":
		return AuthMethodPassword
	case "google":
		return AuthMethodGoogle
	case "apple":
		return AuthMethodApple
	default:
		return AuthMethodNone
	}
}

// DisplayName is the label used in user-facing messages.
func (m AuthMethod) DisplayName() string {
	switch m {
	case AuthMethodGoogle:
		return "Google"
	case AuthMethodApple:
		return "Apple"
	case AuthMethodPassword:
		return "email and password"
	default:
		return "another sign-in method"
	}
}
