package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/medauth/internal/flagx"
)

// parseFlags handles -u (server URL) and -t (request timeout, seconds).
// Everything else on the command line belongs to the subcommands.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-u", "-t"})

	fs := flag.NewFlagSet("medauth-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "u", cfg.ServerURL, "medauth server base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
