package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/medauth/internal/flagx"
	"github.com/dmitrijs2005/medauth/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either Go duration strings ("500ms") or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	GRPCHealthAddr      string         `json:"grpc_health_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	LogLevel            string         `json:"log_level"`
	ProviderURL         string         `json:"provider_url"`
	ProviderAPIKey      string         `json:"provider_api_key"`
	ProviderTimeout     timex.Duration `json:"provider_timeout"`
	SiteURL             string         `json:"site_url"`
	CodeVerifierCookie  string         `json:"code_verifier_cookie"`
	SecureCookies       *bool          `json:"secure_cookies"`
	ProfilePollAttempts int            `json:"profile_poll_attempts"`
	ProfilePollDelay    timex.Duration `json:"profile_poll_delay"`
	NewSignupWindow     timex.Duration `json:"new_signup_window"`
	OTELEndpoint        string         `json:"otel_endpoint"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field present in it onto config. Absent fields keep their current value.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.ProviderURL, c.ProviderURL)
	setString(&config.ProviderAPIKey, c.ProviderAPIKey)
	setString(&config.SiteURL, c.SiteURL)
	setString(&config.CodeVerifierCookie, c.CodeVerifierCookie)
	setString(&config.OTELEndpoint, c.OTELEndpoint)

	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	if c.ProfilePollAttempts != 0 {
		config.ProfilePollAttempts = c.ProfilePollAttempts
	}
	if c.ProviderTimeout.Duration != 0 {
		config.ProviderTimeout = c.ProviderTimeout.Duration
	}
	if c.ProfilePollDelay.Duration != 0 {
		config.ProfilePollDelay = c.ProfilePollDelay.Duration
	}
	if c.NewSignupWindow.Duration != 0 {
		config.NewSignupWindow = c.NewSignupWindow.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
