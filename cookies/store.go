package cookies

import (
	"strconv"
	"time"

	"github.com/riskpad/riskpad/crypto"
)

// Cookie names. The CSRF pair is written by the server and read-only here;
// the rp_* cookies are owned by this process and carry encrypted blobs.
const (
	CSRFAccessCookie  = "csrf_access_token"
	CSRFRefreshCookie = "csrf_refresh_token"

	accessExpiryCookie   = "rp_access_expiry"
	forgotCooldownCookie = "rp_forgot_cooldown"
	otpCooldownCookie    = "rp_otp_cooldown"
)

// cooldownTTL bounds how long a resend action stays disabled.
const cooldownTTL = time.Minute

// TokenStore persists token bookkeeping in a cookie jar. Timestamps are
// sealed through the payload cipher before they touch the jar.
type TokenStore struct {
	jar    Jar
	cipher *crypto.PayloadCipher
	now    func() time.Time
}

// StoreOption configures a TokenStore.
type StoreOption func(*TokenStore)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TokenStore) {
		s.now = now
	}
}

// NewTokenStore creates a TokenStore over the given jar and cipher.
func NewTokenStore(jar Jar, cipher *crypto.PayloadCipher, opts ...StoreOption) *TokenStore {
	s := &TokenStore{jar: jar, cipher: cipher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthCSRFTokens reads the two server-set CSRF cookies. A missing cookie
// reads as the empty string.
func (s *TokenStore) AuthCSRFTokens() (access, refresh string) {
	access, _ = s.jar.Get(CSRFAccessCookie)
	refresh, _ = s.jar.Get(CSRFRefreshCookie)
	return access, refresh
}

// DeleteAuthCookies removes both CSRF cookies and the access-expiry cookie.
// Idempotent.
func (s *TokenStore) DeleteAuthCookies() {
	s.jar.Delete(CSRFAccessCookie)
	s.jar.Delete(CSRFRefreshCookie)
	s.jar.Delete(accessExpiryCookie)
}

// AccessTokenExpiry returns the access token's expiry instant, decrypted
// from its cookie. Absent, expired, or undecryptable all read as not-ok.
func (s *TokenStore) AccessTokenExpiry() (time.Time, bool) {
	return s.readTimestamp(accessExpiryCookie)
}

// SetAccessTokenExpiry seals the expiry epoch-seconds into the access-expiry
// cookie. The cookie itself expires at that same instant.
func (s *TokenStore) SetAccessTokenExpiry(epochSeconds int64) error {
	expires := time.Unix(epochSeconds, 0)
	return s.writeTimestamp(accessExpiryCookie, expires, expires)
}

// SetLastForgotPasswordTime records when a reset link was last requested.
// The cookie lives for one minute; callers disable resend while it exists.
func (s *TokenStore) SetLastForgotPasswordTime(t time.Time) error {
	return s.writeTimestamp(forgotCooldownCookie, t, s.now().Add(cooldownTTL))
}

// LastForgotPasswordTime returns the recorded request time, if still within
// the cooldown window.
func (s *TokenStore) LastForgotPasswordTime() (time.Time, bool) {
	return s.readTimestamp(forgotCooldownCookie)
}

// SetLastOTPRequestTime records when a registration OTP was last requested.
func (s *TokenStore) SetLastOTPRequestTime(t time.Time) error {
	return s.writeTimestamp(otpCooldownCookie, t, s.now().Add(cooldownTTL))
}

// LastOTPRequestTime returns the recorded OTP request time, if still within
// the cooldown window.
func (s *TokenStore) LastOTPRequestTime() (time.Time, bool) {
	return s.readTimestamp(otpCooldownCookie)
}

func (s *TokenStore) writeTimestamp(name string, t, expires time.Time) error {
	blob, err := s.cipher.Encrypt(strconv.FormatInt(t.Unix(), 10))
	if err != nil {
		return err
	}
	s.jar.Set(name, blob, expires)
	return nil
}

func (s *TokenStore) readTimestamp(name string) (time.Time, bool) {
	blob, ok := s.jar.Get(name)
	if !ok {
		return time.Time{}, false
	}
	plain, ok := s.cipher.Decrypt(blob)
	if !ok {
		// Undecryptable is treated the same as absent.
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(plain, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}
