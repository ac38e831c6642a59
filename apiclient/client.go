// Package apiclient is the transport layer for the remote auth API. It
// injects CSRF headers on mutating requests, decodes the {code, data}
// response envelope, and surfaces business-level 401s to a registered hook
// so any endpoint can force the session to unauthenticated.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Endpoint paths.
const (
	pathLogin         = "/api/v1/auth/login"
	pathRegister      = "/api/v1/auth/register"
	pathLogout        = "/api/v1/auth/logout"
	pathRefresh       = "/api/v1/auth/refresh"
	pathWhoAmI        = "/api/v1/auth/me"
	pathForgotPass    = "/api/v1/auth/forgot-password"
	pathResetPassword = "/api/v1/auth/reset-password"
	pathSendOTP       = "/api/v1/auth/otp"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 1 << 20
)

// Client talks to the remote auth API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter

	mu             sync.Mutex
	onUnauthorized func()
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCookieJar installs the cookie jar that receives server-set cookies
// (CSRF pair, http-only tokens) and replays them on requests.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithRateLimit caps outgoing requests at r per second with the given
// burst. Requests over the limit wait, honoring their context.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithBaseTransport sets the RoundTripper beneath the CSRF transport.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport.(*csrfTransport).base = rt
	}
}

// New creates a Client for the given API host. CSRF tokens are read from
// the token source on every mutating request.
func New(baseURL string, tokens CSRFTokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: &csrfTransport{tokens: tokens},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// OnUnauthorized registers the hook invoked when any endpoint other than
// login or reset-password answers with a business-level 401. This is the
// sole integration point through which the server can unilaterally force
// a logout.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Login exchanges credentials for a session. Tokens arrive as http-only
// cookies set by the server; the body carries the user and token expiry.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*SessionData, error) {
	var data SessionData
	if err := c.do(ctx, http.MethodPost, pathLogin, req, &data, nil); err != nil {
		return nil, err
	}
	return &data, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*SessionData, error) {
	var data SessionData
	if err := c.do(ctx, http.MethodPost, pathRegister, req, &data, nil); err != nil {
		return nil, err
	}
	return &data, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, pathLogout, nil, nil, nil)
}

// RefreshToken rotates the access token using the refresh cookie.
func (c *Client) RefreshToken(ctx context.Context) (*RefreshData, error) {
	var data RefreshData
	if err := c.do(ctx, http.MethodPost, pathRefresh, nil, &data, nil); err != nil {
		return nil, err
	}
	return &data, nil
}

// WhoAmI returns the identity bound to the current access token.
func (c *Client) WhoAmI(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, pathWhoAmI, nil, &user, nil); err != nil {
		return nil, err
	}
	return &user, nil
}

// SendResetLink asks the server to email a password-reset link.
func (c *Client) SendResetLink(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, pathForgotPass, ForgotPasswordRequest{Email: email}, nil, nil)
}

// ResetPassword sets a new password using the emailed reset token as a
// bearer credential.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+resetToken)
	return c.do(ctx, http.MethodPost, pathResetPassword, ResetPasswordRequest{Password: newPassword}, nil, header)
}

// SendOTP asks the server to email a registration one-time code.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, pathSendOTP, SendOTPRequest{Email: email}, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, header http.Header) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decoding envelope: %w", method, path, err)
	}

	if env.Code >= http.StatusBadRequest {
		apiErr := &Error{Code: env.Code, Message: env.Message}
		c.logger.Warn("api request failed",
			"method", method, "path", path, "code", env.Code, "message", env.Message)
		if env.Code == http.StatusUnauthorized && path != pathLogin && path != pathResetPassword {
			c.fireUnauthorized()
		}
		return apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decoding data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) fireUnauthorized() {
	c.mu.Lock()
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// IsCode reports whether err is a business-level API error with the given code.
func IsCode(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
