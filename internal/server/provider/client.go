// Package provider is the HTTP client for the external identity provider
// (a GoTrue-compatible auth API). It owns identity records and sessions;
// medauth never stores credentials itself.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/logging"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/medauth/internal/server/provider"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to the provider's REST API. It is safe for concurrent use
// and holds no per-user state: every call carries its own token.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	tracer  trace.Tracer
	logger  logging.Logger
}

// NewClient builds a client for baseURL. A nil httpClient gets a client with
// the given timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, httpClient *http.Client, logger logging.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("provider url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: u,
		apiKey:  apiKey,
		http:    httpClient,
		tracer:  otel.Tracer(tracerName),
		logger:  logger.With("module", "provider"),
	}, nil
}

// ExchangeResult is a successful code exchange.
type ExchangeResult struct {
	Session  models.Session
	Identity *models.Identity
}

// SignUpResult carries the created identity. Session is nil while the
// provider waits for email confirmation.
type SignUpResult struct {
	Identity *models.Identity
	Session  *models.Session
}

// ExchangeCode trades a redirect code and its PKCE verifier for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*ExchangeResult, error) {
	var resp tokenResponse
	err := c.do(ctx, "exchange", http.MethodPost, "/token", url.Values{"grant_type": {"pkce"}}, "",
		map[string]string{"auth_code": code, "code_verifier": codeVerifier}, &resp)
	if err != nil {
		return nil, err
	}
	return &ExchangeResult{Session: resp.session(), Identity: resp.User.identity()}, nil
}

// Flow binds an emailed confirmation link to the browser that asked for it.
// The link carries a code that only exchanges together with the verifier
// behind CodeChallenge, and lands on RedirectTo.
type Flow struct {
	CodeChallenge string
	RedirectTo    string
}

// ChallengeMethodS256 is the only PKCE method medauth uses.
const ChallengeMethodS256 = "s256"

func (f Flow) apply(body map[string]any) url.Values {
	if f.CodeChallenge != "" {
		body["code_challenge"] = f.CodeChallenge
		body["code_challenge_method"] = ChallengeMethodS256
	}
	if f.RedirectTo == "" {
		return nil
	}
	return url.Values{"redirect_to": {f.RedirectTo}}
}

// SignUp creates a password identity. metadata becomes the provider's user
// metadata and seeds the profile row created asynchronously on its side.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any, flow Flow) (*SignUpResult, error) {
	body := map[string]any{"email": email, "password": password, "data": metadata}
	query := flow.apply(body)

	var resp signupResponse
	if err := c.do(ctx, "signup", http.MethodPost, "/signup", query, "", body, &resp); err != nil {
		return nil, err
	}

	res := &SignUpResult{}
	switch {
	case resp.User != nil:
		res.Identity = resp.User.identity()
	case resp.ID != "":
		res.Identity = resp.userResponse.identity()
	}
	if resp.AccessToken != "" {
		s := resp.tokenResponse.session()
		res.Session = &s
	}
	return res, nil
}

// ResendConfirmation asks the provider to send the signup confirmation
// email again.
func (c *Client) ResendConfirmation(ctx context.Context, email string, flow Flow) error {
	body := map[string]any{"type": "signup", "email": email}
	query := flow.apply(body)
	return c.do(ctx, "resend", http.MethodPost, "/resend", query, "", body, nil)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "signout", http.MethodPost, "/logout", nil, accessToken, nil, nil)
}

// UpdateUser merges metadata into the identity's user metadata.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) error {
	return c.do(ctx, "update_user", http.MethodPut, "/user", nil, accessToken, map[string]any{"data": metadata}, nil)
}

// GetUser returns the identity behind accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	var resp userResponse
	if err := c.do(ctx, "get_user", http.MethodGet, "/user", nil, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return resp.identity(), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "provider."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, op+" failed")
		}
		span.End()
	}()

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &common.UpstreamProviderError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(ctx, op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) errorFromResponse(ctx context.Context, op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var e errorResponse
	_ = json.Unmarshal(raw, &e)

	upErr := &common.UpstreamProviderError{
		Op:      op,
		Status:  resp.StatusCode,
		Code:    e.code(),
		Message: e.message(),
	}
	if upErr.Message == "" {
		upErr.Message = strings.TrimSpace(string(raw))
	}

	c.logger.Warn(ctx, "provider call failed", "op", op, "status", resp.StatusCode, "code", upErr.Code)

	if IsUniquenessRace(upErr) {
		return fmt.Errorf("%w: %w", common.ErrUniqueViolation, upErr)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", common.ErrorUnauthorized, upErr)
	}
	return upErr
}

// IsUniquenessRace reports whether the provider rejected a write because
// the email or phone was taken by a concurrent signup.
func IsUniquenessRace(err error) bool {
	var upErr *common.UpstreamProviderError
	if !errors.As(err, &upErr) {
		return false
	}
	switch upErr.Code {
	case "user_already_exists", "email_exists", "phone_exists":
		return true
	}
	msg := strings.ToLower(upErr.Message)
	return strings.Contains(msg, "already registered") || strings.Contains(msg, "duplicate key")
}
