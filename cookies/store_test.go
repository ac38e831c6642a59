package cookies

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/riskpad/riskpad/crypto"
	"github.com/riskpad/riskpad/internal/util"
	"github.com/riskpad/riskpad/storage/memory"
)

func newTestCipher(t *testing.T) *crypto.PayloadCipher {
	t.Helper()
	raw, err := util.RandomBytes(util.AESKeySize)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	c, err := crypto.NewPayloadCipher(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("NewPayloadCipher failed: %v", err)
	}
	return c
}

// fakeClock drives jar and store time in tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*TokenStore, *MemoryJar, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	jar := NewMemoryJar()
	jar.Now = clock.now
	store := NewTokenStore(jar, newTestCipher(t), WithClock(clock.now))
	return store, jar, clock
}

func TestAuthCSRFTokens(t *testing.T) {
	store, jar, _ := newTestStore(t)

	access, refresh := store.AuthCSRFTokens()
	if access != "" || refresh != "" {
		t.Errorf("missing cookies should read empty, got (%q, %q)", access, refresh)
	}

	jar.Set(CSRFAccessCookie, "acc-tok", time.Time{})
	jar.Set(CSRFRefreshCookie, "ref-tok", time.Time{})
	access, refresh = store.AuthCSRFTokens()
	if access != "acc-tok" || refresh != "ref-tok" {
		t.Errorf("got (%q, %q), want (acc-tok, ref-tok)", access, refresh)
	}
}

func TestDeleteAuthCookies(t *testing.T) {
	store, jar, clock := newTestStore(t)
	jar.Set(CSRFAccessCookie, "a", time.Time{})
	jar.Set(CSRFRefreshCookie, "r", time.Time{})
	if err := store.SetAccessTokenExpiry(clock.now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("SetAccessTokenExpiry failed: %v", err)
	}

	store.DeleteAuthCookies()
	if access, refresh := store.AuthCSRFTokens(); access != "" || refresh != "" {
		t.Error("CSRF cookies should be gone")
	}
	if _, ok := store.AccessTokenExpiry(); ok {
		t.Error("access expiry cookie should be gone")
	}

	// Idempotent.
	store.DeleteAuthCookies()
}

func TestAccessTokenExpiry_RoundTrip(t *testing.T) {
	store, _, clock := newTestStore(t)
	expiry := clock.now().Add(15 * time.Minute).Truncate(time.Second)

	if err := store.SetAccessTokenExpiry(expiry.Unix()); err != nil {
		t.Fatalf("SetAccessTokenExpiry failed: %v", err)
	}
	got, ok := store.AccessTokenExpiry()
	if !ok {
		t.Fatal("expected expiry to be readable")
	}
	if !got.Equal(expiry) {
		t.Errorf("got %v, want %v", got, expiry)
	}
}

func TestAccessTokenExpiry_CookieExpiresAtInstant(t *testing.T) {
	store, _, clock := newTestStore(t)
	expiry := clock.now().Add(time.Minute)
	if err := store.SetAccessTokenExpiry(expiry.Unix()); err != nil {
		t.Fatalf("SetAccessTokenExpiry failed: %v", err)
	}

	clock.advance(2 * time.Minute)
	if _, ok := store.AccessTokenExpiry(); ok {
		t.Error("cookie should have expired with the token")
	}
}

func TestAccessTokenExpiry_GarbageBlob(t *testing.T) {
	store, jar, _ := newTestStore(t)
	jar.Set("rp_access_expiry", "not-a-blob", time.Time{})
	if _, ok := store.AccessTokenExpiry(); ok {
		t.Error("undecryptable blob should read as absent")
	}
}

func TestForgotPasswordCooldown(t *testing.T) {
	store, _, clock := newTestStore(t)
	at := clock.now()

	if err := store.SetLastForgotPasswordTime(at); err != nil {
		t.Fatalf("SetLastForgotPasswordTime failed: %v", err)
	}
	got, ok := store.LastForgotPasswordTime()
	if !ok {
		t.Fatal("cooldown should be readable immediately")
	}
	if got.Unix() != at.Unix() {
		t.Errorf("got %v, want %v", got.Unix(), at.Unix())
	}

	clock.advance(59 * time.Second)
	if _, ok := store.LastForgotPasswordTime(); !ok {
		t.Error("cooldown should still hold before the TTL elapses")
	}

	clock.advance(2 * time.Second)
	if _, ok := store.LastForgotPasswordTime(); ok {
		t.Error("cooldown should be gone after the TTL elapses")
	}
}

func TestOTPCooldown(t *testing.T) {
	store, _, clock := newTestStore(t)
	at := clock.now()

	if err := store.SetLastOTPRequestTime(at); err != nil {
		t.Fatalf("SetLastOTPRequestTime failed: %v", err)
	}
	if _, ok := store.LastOTPRequestTime(); !ok {
		t.Fatal("OTP cooldown should be readable immediately")
	}

	clock.advance(cooldownTTL + time.Second)
	if _, ok := store.LastOTPRequestTime(); ok {
		t.Error("OTP cooldown should be gone after the TTL elapses")
	}
}

func TestCooldownBlobsAreEncrypted(t *testing.T) {
	store, jar, clock := newTestStore(t)
	if err := store.SetLastForgotPasswordTime(clock.now()); err != nil {
		t.Fatalf("SetLastForgotPasswordTime failed: %v", err)
	}
	raw, ok := jar.Get("rp_forgot_cooldown")
	if !ok {
		t.Fatal("cooldown cookie missing from jar")
	}
	if raw == "" || raw[0] == '1' {
		t.Errorf("cooldown cookie looks like a plaintext timestamp: %q", raw)
	}
}

func TestPersistentJarBackedStore(t *testing.T) {
	repo := memory.NewRepository()
	jar := NewPersistentJar(repo)
	store := NewTokenStore(jar, newTestCipher(t))

	expiry := time.Now().Add(time.Hour)
	if err := store.SetAccessTokenExpiry(expiry.Unix()); err != nil {
		t.Fatalf("SetAccessTokenExpiry failed: %v", err)
	}
	got, ok := store.AccessTokenExpiry()
	if !ok {
		t.Fatal("expected expiry to be readable through persistent jar")
	}
	if got.Unix() != expiry.Unix() {
		t.Errorf("got %v, want %v", got.Unix(), expiry.Unix())
	}
}
