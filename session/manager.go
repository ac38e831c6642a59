// Package session coordinates the named auth flows (login, logout, refresh,
// check-session, forgot/reset password, OTP) through an event-sourced state
// container, and keeps the access token fresh while a session is active.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/riskpad/riskpad/apiclient"
	"github.com/riskpad/riskpad/cookies"
	"github.com/riskpad/riskpad/internal/obs"
	"github.com/riskpad/riskpad/internal/util"
)

const (
	// refreshAhead is how close to expiry the access token must be before
	// a refresh actually hits the network.
	refreshAhead = 5 * time.Minute
	// refreshInterval is the scheduler tick and the per-session loop period.
	refreshInterval = time.Minute
)

// AuthAPI is the slice of the transport client the session flows use.
// Satisfied by *apiclient.Client.
type AuthAPI interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.SessionData, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.SessionData, error)
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) (*apiclient.RefreshData, error)
	WhoAmI(ctx context.Context) (*apiclient.User, error)
	SendResetLink(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	SendOTP(ctx context.Context, email string) error
}

// Manager executes the session flows. Duplicate-dispatch policy differs per
// flow: login and the password flows are last-wins (a newer call cancels the
// older one's HTTP request), while refresh, check-session, logout and OTP
// are exactly-one-in-flight (later triggers collapse into the running one).
type Manager struct {
	store   *Store
	api     AuthAPI
	cookies *cookies.TokenStore
	logger  *slog.Logger
	now     func() time.Time

	mu             sync.Mutex
	loginCancel    context.CancelFunc
	loginGen       uint64
	forgotCancel   context.CancelFunc
	resetCancel    context.CancelFunc
	logoutInFlight bool
	otpInFlight    bool
	// sessionDone is closed when the session ends; a pending refresh
	// selects on it so logout preempts the refresh result.
	sessionDone chan struct{}

	refreshGroup singleflight.Group
	checkGroup   singleflight.Group

	sched *RefreshScheduler
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager wires the flows to their collaborators. The caller owns the
// single instance for the process (composition root); see also
// (*apiclient.Client).OnUnauthorized, which should be pointed at
// HandleUnauthorized so server-side 401s force a logout.
func NewManager(store *Store, api AuthAPI, cookieStore *cookies.TokenStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		api:     api,
		cookies: cookieStore,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.sched = NewRefreshScheduler(refreshInterval, func(ctx context.Context) {
		obs.RecordRefreshTick()
		m.RefreshToken(ctx)
	})
	return m
}

// Store exposes the state container for selectors and the promise bridge.
func (m *Manager) Store() *Store {
	return m.store
}

// Scheduler is the app-level periodic refresh, independent of login.
func (m *Manager) Scheduler() *RefreshScheduler {
	return m.sched
}

// HandleUnauthorized forces the session to unauthenticated. Registered as
// the API client's 401 hook.
func (m *Manager) HandleUnauthorized() {
	go m.Logout(context.Background())
}

// Login signs in with credentials. A second Login while one is in flight
// cancels the first (last-wins). On success the access-token expiry cookie
// is persisted, the user is set, and the per-session refresh loop is armed.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	ctx, gen := m.takeLoginSlot(ctx)
	m.store.Dispatch(FlowStarted{Flow: FlowLogin})

	data, err := m.api.Login(ctx, apiclient.LoginRequest{
		Email:    util.NormalizeEmail(email),
		Password: password,
	})
	return m.finishSignIn(ctx, gen, data, err)
}

// Register creates an account and signs it in. Shares the login flow's
// bookkeeping and cancellation slot.
func (m *Manager) Register(ctx context.Context, email, password, otp string) error {
	ctx, gen := m.takeLoginSlot(ctx)
	m.store.Dispatch(FlowStarted{Flow: FlowLogin})

	data, err := m.api.Register(ctx, apiclient.RegisterRequest{
		Email:    util.NormalizeEmail(email),
		Password: password,
		OTP:      otp,
	})
	return m.finishSignIn(ctx, gen, data, err)
}

// CancelLogin aborts an in-flight login's HTTP call. Whichever of the login
// result or the cancel arrives first wins; a cancelled login leaves session
// state untouched. No-op when nothing is in flight.
func (m *Manager) CancelLogin() {
	m.mu.Lock()
	cancel := m.loginCancel
	m.loginCancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// takeLoginSlot claims the single login slot, cancelling any previous
// holder. The returned generation identifies this claim; a finishing call
// whose generation is stale has been superseded by a newer login.
func (m *Manager) takeLoginSlot(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.loginCancel != nil {
		m.loginCancel()
	}
	m.loginCancel = cancel
	m.loginGen++
	gen := m.loginGen
	m.mu.Unlock()
	return ctx, gen
}

func (m *Manager) ownsLoginSlot(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.loginGen
}

func (m *Manager) finishSignIn(ctx context.Context, gen uint64, data *apiclient.SessionData, err error) error {
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		// Only an explicit CancelLogin ends the flow; a login superseded
		// by a newer one must not touch the state the successor owns.
		if m.ownsLoginSlot(gen) {
			m.store.Dispatch(LoginCancelled{})
		}
		return ErrLoginCancelled
	}
	if err != nil {
		m.logFlowError(FlowLogin, err)
		m.store.Dispatch(FlowFailed{Flow: FlowLogin, Message: userMessage(FlowLogin, err)})
		return err
	}

	if err := m.cookies.SetAccessTokenExpiry(data.AccessTokenExpiry); err != nil {
		m.logger.Error("persisting access token expiry", "error", err)
	}
	m.store.Dispatch(LoginSucceeded{User: data.User})
	m.armSessionLoop()
	return nil
}

// armSessionLoop starts the per-session refresh loop. Idempotent while a
// session is active.
func (m *Manager) armSessionLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionDone != nil {
		return
	}
	done := make(chan struct{})
	m.sessionDone = done
	go m.sessionRefreshLoop(done)
}

func (m *Manager) sessionRefreshLoop(done <-chan struct{}) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			obs.RecordRefreshTick()
			m.RefreshToken(context.Background())
		}
	}
}

// Logout ends the session. Duplicate triggers while one logout runs are
// dropped. The endpoint call is best-effort: local session state and
// cookies are cleared no matter what the server says.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	if m.logoutInFlight {
		m.mu.Unlock()
		return
	}
	m.logoutInFlight = true
	done := m.sessionDone
	m.sessionDone = nil
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.logoutInFlight = false
		m.mu.Unlock()
	}()

	m.store.Dispatch(FlowStarted{Flow: FlowLogout})
	if done != nil {
		// Preempts the session loop and any pending refresh.
		close(done)
	}

	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn("logout endpoint call failed", "error", err)
	}
	m.cookies.DeleteAuthCookies()
	m.store.Dispatch(LogoutFinished{})
}

// RefreshToken keeps the access token fresh. Concurrent triggers collapse
// into one execution. Short-circuits: a missing refresh-CSRF cookie fails
// without a network call; an access token more than refreshAhead from
// expiry (with its CSRF cookie present) succeeds without one.
func (m *Manager) RefreshToken(ctx context.Context) Status {
	v, _, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.doRefresh(ctx), nil
	})
	return v.(Status)
}

func (m *Manager) doRefresh(ctx context.Context) Status {
	m.store.Dispatch(FlowStarted{Flow: FlowRefreshToken})

	access, refresh := m.cookies.AuthCSRFTokens()
	if refresh == "" {
		obs.RecordRefreshShortCircuit("no_refresh_cookie")
		m.store.Dispatch(FlowFailed{Flow: FlowRefreshToken})
		return StatusFailed
	}
	if expiry, ok := m.cookies.AccessTokenExpiry(); ok && access != "" && expiry.Sub(m.now()) > refreshAhead {
		obs.RecordRefreshShortCircuit("not_due")
		m.store.Dispatch(RefreshSucceeded{})
		return StatusSuccess
	}

	m.mu.Lock()
	done := m.sessionDone
	m.mu.Unlock()

	type result struct {
		data *apiclient.RefreshData
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		data, err := m.api.RefreshToken(ctx)
		resCh <- result{data, err}
	}()

	var res result
	if done != nil {
		select {
		case res = <-resCh:
		case <-done:
			// Logout won the race. The HTTP call may still complete, but
			// its result is never applied to state.
			m.store.Dispatch(FlowFailed{Flow: FlowRefreshToken})
			return StatusFailed
		}
	} else {
		res = <-resCh
	}

	if res.err != nil {
		m.logFlowError(FlowRefreshToken, res.err)
		m.store.Dispatch(FlowFailed{Flow: FlowRefreshToken, Message: userMessage(FlowRefreshToken, res.err)})
		return StatusFailed
	}
	if err := m.cookies.SetAccessTokenExpiry(res.data.AccessTokenExpiry); err != nil {
		m.logger.Error("persisting access token expiry", "error", err)
	}
	m.store.Dispatch(RefreshSucceeded{})
	return StatusSuccess
}

// CheckSession resolves the current user: the one already signed in, or the
// one recovered by refreshing the token and asking the server. Returns nil
// when no session exists; it never fails outward. Concurrent triggers
// collapse into one execution.
func (m *Manager) CheckSession(ctx context.Context) *User {
	return m.checkSession(ctx, true)
}

// StartCheckSession launches the flow without blocking. The start event is
// committed before it returns, so a bridge subscriber never observes a
// stale terminal status.
func (m *Manager) StartCheckSession(ctx context.Context) {
	m.store.Dispatch(FlowStarted{Flow: FlowCheckSession})
	go m.checkSession(ctx, false)
}

// checkSession collapses concurrent triggers into one execution. The start
// event fires once per run: inside the flight for blocking callers, or
// already committed by StartCheckSession for non-blocking ones.
func (m *Manager) checkSession(ctx context.Context, dispatchStart bool) *User {
	v, _, _ := m.checkGroup.Do("check", func() (any, error) {
		if dispatchStart {
			m.store.Dispatch(FlowStarted{Flow: FlowCheckSession})
		}
		return m.doCheckSession(ctx), nil
	})
	u, _ := v.(*User)
	return u
}

func (m *Manager) doCheckSession(ctx context.Context) *User {
	if u := m.store.State().User; u != nil {
		m.store.Dispatch(CheckSessionFinished{User: u})
		return u
	}
	if m.RefreshToken(ctx) == StatusFailed {
		m.store.Dispatch(CheckSessionFinished{})
		return nil
	}
	user, err := m.api.WhoAmI(ctx)
	if err != nil {
		m.logFlowError(FlowCheckSession, err)
		m.store.Dispatch(FlowFailed{Flow: FlowCheckSession, Message: userMessage(FlowCheckSession, err)})
		return nil
	}
	m.store.Dispatch(CheckSessionFinished{User: user})
	m.armSessionLoop()
	return user
}

// ForgotPassword requests a password-reset email. Last-wins on duplicate
// dispatch. While the cooldown cookie from a previous request is live the
// endpoint is not called.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.forgotCancel != nil {
		m.forgotCancel()
	}
	m.forgotCancel = cancel
	m.mu.Unlock()

	m.store.Dispatch(FlowStarted{Flow: FlowForgotPassword})

	if _, active := m.cookies.LastForgotPasswordTime(); active {
		m.store.Dispatch(FlowFailed{Flow: FlowForgotPassword, Message: msgResendCooldown})
		return ErrResendCooldown
	}

	err := m.api.SendResetLink(ctx, util.NormalizeEmail(email))
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		// Superseded by a newer request; that one owns the flow state now.
		return ctx.Err()
	}
	if err != nil {
		m.logFlowError(FlowForgotPassword, err)
		m.store.Dispatch(FlowFailed{Flow: FlowForgotPassword, Message: userMessage(FlowForgotPassword, err)})
		return err
	}

	if err := m.cookies.SetLastForgotPasswordTime(m.now()); err != nil {
		m.logger.Error("persisting forgot-password cooldown", "error", err)
	}
	m.store.Dispatch(ForgotPasswordSucceeded{})
	return nil
}

// ResetPassword sets a new password using the emailed token. The token's
// exp claim is pre-checked client-side; an already-expired link fails
// without calling the endpoint. Success also logs the session out.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.resetCancel != nil {
		m.resetCancel()
	}
	m.resetCancel = cancel
	m.mu.Unlock()

	m.store.Dispatch(FlowStarted{Flow: FlowResetPassword})

	claims, err := DecodeResetToken(resetToken)
	if err != nil {
		m.logger.Warn("reset token undecodable", "error", err)
		m.store.Dispatch(FlowFailed{Flow: FlowResetPassword, Message: msgResetLinkInvalid})
		return err
	}
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(m.now()) {
		m.store.Dispatch(FlowFailed{Flow: FlowResetPassword, Message: msgResetLinkInvalid})
		return ErrResetLinkExpired
	}

	err = m.api.ResetPassword(ctx, resetToken, newPassword)
	if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	if err != nil {
		m.logFlowError(FlowResetPassword, err)
		m.store.Dispatch(FlowFailed{Flow: FlowResetPassword, Message: userMessage(FlowResetPassword, err)})
		return err
	}

	m.store.Dispatch(ResetPasswordSucceeded{})
	m.Logout(ctx)
	return nil
}

// SendOTP requests a registration one-time code. Duplicate triggers while
// one is in flight are dropped; the cooldown cookie blocks resends.
func (m *Manager) SendOTP(ctx context.Context, email string) error {
	m.mu.Lock()
	if m.otpInFlight {
		m.mu.Unlock()
		return nil
	}
	m.otpInFlight = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.otpInFlight = false
		m.mu.Unlock()
	}()

	m.store.Dispatch(FlowStarted{Flow: FlowSendOTP})

	if _, active := m.cookies.LastOTPRequestTime(); active {
		m.store.Dispatch(FlowFailed{Flow: FlowSendOTP, Message: msgResendCooldown})
		return ErrResendCooldown
	}

	if err := m.api.SendOTP(ctx, util.NormalizeEmail(email)); err != nil {
		m.logFlowError(FlowSendOTP, err)
		m.store.Dispatch(FlowFailed{Flow: FlowSendOTP, Message: userMessage(FlowSendOTP, err)})
		return err
	}

	if err := m.cookies.SetLastOTPRequestTime(m.now()); err != nil {
		m.logger.Error("persisting otp cooldown", "error", err)
	}
	m.store.Dispatch(OTPSent{})
	return nil
}

func (m *Manager) logFlowError(flow Flow, err error) {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		m.logger.Error("flow failed", "flow", string(flow), "code", apiErr.Code, "error", err)
		return
	}
	m.logger.Error("flow failed", "flow", string(flow), "error", err)
}
