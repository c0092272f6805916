// Package cli implements the medauth-cli commands.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/medauth/internal/client/api"
	"github.com/dmitrijs2005/medauth/internal/client/config"
)

// Client is the subset of the server API the commands use.
type Client interface {
	Signup(ctx context.Context, req api.SignupRequest) (*api.SignupResponse, error)
	Resend(ctx context.Context, email string) error
	Availability(ctx context.Context, email, phone string) (*api.Availability, error)
}

type App struct {
	client Client
	in     *bufio.Reader
	out    io.Writer
}

func NewApp(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	c, err := api.NewClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, in, out), nil
}

func newApp(c Client, in io.Reader, out io.Writer) *App {
	return &App{client: c, in: bufio.NewReader(in), out: out}
}

const usage = `usage: medauth-cli [-c config.json] [-u server-url] [-t seconds] <command>

commands:
  signup                 register a new account interactively
  check <email> [phone]  check whether an email or phone is already registered
  resend <email>         resend the confirmation email
  help                   show this message
`

// ErrUsage is returned for an unknown command or wrong arguments.
var ErrUsage = errors.New("invalid usage")

// Run executes the command named by the first positional argument.
func (a *App) Run(ctx context.Context, args []string) error {
	pos := positional(args)
	if len(pos) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	switch pos[0] {
	case "signup":
		return a.signup(ctx)
	case "check":
		if len(pos) < 2 || len(pos) > 3 {
			fmt.Fprint(a.out, usage)
			return ErrUsage
		}
		phone := ""
		if len(pos) == 3 {
			phone = pos[2]
		}
		return a.check(ctx, pos[1], phone)
	case "resend":
		if len(pos) != 2 {
			fmt.Fprint(a.out, usage)
			return ErrUsage
		}
		return a.resend(ctx, pos[1])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", pos[0], usage)
		return ErrUsage
	}
}

func (a *App) signup(ctx context.Context) error {
	var req api.SignupRequest
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Email", &req.Email},
		{"First name", &req.FirstName},
		{"Last name", &req.LastName},
		{"Country", &req.Country},
		{"Phone (optional)", &req.Phone},
		{"Role (patient, doctor, clinic; empty for patient)", &req.Role},
	}
	for _, p := range prompts {
		v, err := GetSimpleText(a.in, p.label, a.out)
		if err != nil {
			return fmt.Errorf("read %s: %w", strings.ToLower(p.label), err)
		}
		*p.dst = v
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	req.Password = string(pw)
	wipe(pw)

	res, err := a.client.Signup(ctx, req)
	if err != nil {
		return a.report(err)
	}

	if res.ConfirmationPending {
		fmt.Fprintf(a.out, "Account created for %s. Check your inbox to confirm your email.\n", res.Email)
	} else {
		fmt.Fprintf(a.out, "Account created for %s.\n", res.Email)
	}
	return nil
}

func (a *App) check(ctx context.Context, email, phone string) error {
	res, err := a.client.Availability(ctx, email, phone)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "email %s: %s\n", email, takenLabel(res.EmailTaken))
	if phone != "" {
		fmt.Fprintf(a.out, "phone %s: %s\n", phone, takenLabel(res.PhoneTaken))
	}
	return nil
}

func (a *App) resend(ctx context.Context, email string) error {
	if err := a.client.Resend(ctx, email); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Confirmation email sent to %s.\n", email)
	return nil
}

// report prints server-side messages one per line and passes err through.
func (a *App) report(err error) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(a.out, apiErr.Message)
		for _, m := range apiErr.Messages {
			fmt.Fprintf(a.out, "  - %s\n", m)
		}
	}
	return err
}

func takenLabel(taken bool) string {
	if taken {
		return "already registered"
	}
	return "available"
}

// positional drops the config flags handled by the config package, with
// their values, and returns what is left.
func positional(args []string) []string {
	withValue := map[string]bool{"-c": true, "-config": true, "-u": true, "-t": true}
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if name, _, ok := strings.Cut(arg, "="); ok && withValue[name] {
			continue
		}
		if withValue[arg] {
			i++
			continue
		}
		out = append(out, arg)
	}
	return out
}
