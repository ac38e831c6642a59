package session

import "github.com/riskpad/riskpad/apiclient"

// User is the signed-in account identity held by the store. Nil means
// unauthenticated.
type User = apiclient.User

// Flow identifies one named asynchronous business operation.
type Flow string

const (
	FlowLogin          Flow = "login"
	FlowLogout         Flow = "logout"
	FlowRefreshToken   Flow = "refresh_token"
	FlowCheckSession   Flow = "check_session"
	FlowForgotPassword Flow = "forgot_password"
	FlowResetPassword  Flow = "reset_password"
	FlowSendOTP        Flow = "send_otp"
)

// Status is the lifecycle position of a tracked flow.
type Status int

const (
	StatusIdle Status = iota
	StatusStart
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusStart:
		return "start"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is the closed set of state transitions accepted by the store. All
// session-state mutation flows through Dispatch with one of these.
type Event interface {
	isEvent()
}

// FlowStarted marks a flow in-flight: loading on, error cleared, tracked
// status moved to StatusStart.
type FlowStarted struct {
	Flow Flow
}

// FlowFailed is a flow's failure terminal. Message is the user-facing
// error; it may be empty when the failure has no user-visible cause.
type FlowFailed struct {
	Flow    Flow
	Message string
}

// LoginCancelled ends a login whose cancel race won. Session state is left
// untouched; only the loading flag is cleared.
type LoginCancelled struct{}

// LoginSucceeded sets the signed-in user.
type LoginSucceeded struct {
	User User
}

// LogoutFinished is the only event that clears the signed-in user.
type LogoutFinished struct{}

// RefreshSucceeded is the refresh flow's success terminal.
type RefreshSucceeded struct{}

// CheckSessionFinished resolves the check-session flow. A nil User means
// no authenticated session exists; the store's user is only overwritten
// when a user was found.
type CheckSessionFinished struct {
	User *User
}

// ForgotPasswordSucceeded is the forgot-password flow's success terminal.
type ForgotPasswordSucceeded struct{}

// ResetPasswordSucceeded is the reset-password flow's success terminal.
type ResetPasswordSucceeded struct{}

// OTPSent is the send-OTP flow's success terminal.
type OTPSent struct{}

func (FlowStarted) isEvent()             {}
func (FlowFailed) isEvent()              {}
func (LoginCancelled) isEvent()          {}
func (LoginSucceeded) isEvent()          {}
func (LogoutFinished) isEvent()          {}
func (RefreshSucceeded) isEvent()        {}
func (CheckSessionFinished) isEvent()    {}
func (ForgotPasswordSucceeded) isEvent() {}
func (ResetPasswordSucceeded) isEvent()  {}
func (OTPSent) isEvent()                 {}
