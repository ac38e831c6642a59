package apiclient

import (
	"encoding/json"
	"fmt"
)

// User is the authenticated account identity returned by the auth API.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

// SessionData is returned from login and register: the signed-in user plus
// the access token's expiry as epoch seconds. The tokens themselves live in
// http-only cookies and never appear in response bodies.
type SessionData struct {
	User              User  `json:"user"`
	AccessTokenExpiry int64 `json:"access_token_expiry"`
}

// RefreshData is returned from POST /auth/refresh.
type RefreshData struct {
	AccessTokenExpiry int64 `json:"access_token_expiry"`
}

// ForgotPasswordRequest is the JSON body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the JSON body for POST /auth/reset-password.
// The reset token rides in the Authorization header, not the body.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// SendOTPRequest is the JSON body for POST /auth/otp.
type SendOTPRequest struct {
	Email string `json:"email"`
}

// envelope is the uniform response wrapper: code drives error handling
// regardless of the outer transport status.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error is a business-level error decoded from a response envelope.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}
