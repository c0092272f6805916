package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/medauth/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-p", "-k", "-s", "-n", "-w", "-t", "-o", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP bind address
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-p string   identity provider base URL
//	-k string   identity provider API key
//	-s string   public site URL
//	-n int      profile poll attempts
//	-w int      profile poll delay, milliseconds
//	-t int      new-signup window, seconds
//	-o string   OTLP/HTTP trace endpoint
//	-l string   log level (debug, info, warn, error)
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("medauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.ProviderURL, "p", config.ProviderURL, "identity provider URL")
	fs.StringVar(&config.ProviderAPIKey, "k", config.ProviderAPIKey, "identity provider API key")
	fs.StringVar(&config.SiteURL, "s", config.SiteURL, "public site URL")
	fs.IntVar(&config.ProfilePollAttempts, "n", config.ProfilePollAttempts, "profile poll attempts")
	pollDelay := fs.Int("w", int(config.ProfilePollDelay.Milliseconds()), "profile poll delay (in milliseconds)")
	window := fs.Int("t", int(config.NewSignupWindow.Seconds()), "new signup window (in seconds)")
	fs.StringVar(&config.OTELEndpoint, "o", config.OTELEndpoint, "OTLP/HTTP trace endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	config.ProfilePollDelay = time.Duration(*pollDelay) * time.Millisecond
	config.NewSignupWindow = time.Duration(*window) * time.Second
	return nil
}
