package common

// Cookie names used to carry the provider session to the browser.
const (
	AccessTokenCookieName  = "medauth_access_token"
	RefreshTokenCookieName = "medauth_refresh_token"
)

// AuthorizationHeaderName is the header the CLI and profile-completion
// clients use to present the session access token.
const AuthorizationHeaderName = "Authorization"
