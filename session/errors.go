package session

import (
	"errors"
	"net/http"

	"github.com/riskpad/riskpad/apiclient"
)

// ErrLoginCancelled is returned when the cancel race wins against an
// in-flight login.
var ErrLoginCancelled = errors.New("login cancelled")

// ErrResetLinkExpired is returned when the reset token's exp claim is
// already in the past; the endpoint is never called in that case.
var ErrResetLinkExpired = errors.New("reset link expired")

// ErrResendCooldown is returned while a resend cooldown cookie is active.
var ErrResendCooldown = errors.New("resend cooldown active")

// User-facing messages. Transport and unknown failures collapse into the
// generic message; specific business codes map per flow.
const (
	msgTryAgainLater    = "Something went wrong. Please try again later."
	msgBadCredentials   = "Incorrect email or password."
	msgTooManyAttempts  = "Too many attempts. Please wait a moment and try again."
	msgEmailTaken       = "An account with this email already exists."
	msgUnknownEmail     = "No account found for this email address."
	msgResendCooldown   = "Please wait a minute before requesting another one."
	msgResetLinkInvalid = "This reset link is invalid or has expired."
	msgSessionExpired   = "Your session has expired. Please sign in again."
)

// userMessage converts a flow's operation error into the string shown to
// the user.
func userMessage(flow Flow, err error) string {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return msgTryAgainLater
	}
	switch flow {
	case FlowLogin:
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusNotFound:
			return msgBadCredentials
		case http.StatusConflict:
			return msgEmailTaken
		case http.StatusTooManyRequests:
			return msgTooManyAttempts
		}
	case FlowForgotPassword:
		switch apiErr.Code {
		case http.StatusNotFound:
			return msgUnknownEmail
		case http.StatusTooManyRequests:
			return msgResendCooldown
		}
	case FlowSendOTP:
		if apiErr.Code == http.StatusTooManyRequests {
			return msgResendCooldown
		}
	case FlowResetPassword:
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusNotFound:
			return msgResetLinkInvalid
		}
	case FlowRefreshToken, FlowCheckSession:
		if apiErr.Code == http.StatusUnauthorized {
			return msgSessionExpired
		}
	}
	return msgTryAgainLater
}
