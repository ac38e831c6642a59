package apiclient

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	csrfHeader      = "X-CSRF-Token"
	requestIDHeader = "X-Request-ID"
)

// CSRFTokenSource supplies the current CSRF token pair. Satisfied by
// *cookies.TokenStore.
type CSRFTokenSource interface {
	AuthCSRFTokens() (access, refresh string)
}

// csrfTransport decorates every outgoing request: mutating requests get the
// CSRF header matching their target (refresh token for the refresh endpoint,
// access token otherwise), and every request gets a correlation ID. The
// reset-password endpoint authenticates with its own bearer credential and
// carries no CSRF header.
type csrfTransport struct {
	base   http.RoundTripper
	tokens CSRFTokenSource
}

func (t *csrfTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(requestIDHeader, uuid.NewString())

	if isMutating(req.Method) && req.URL.Path != pathResetPassword {
		access, refresh := t.tokens.AuthCSRFTokens()
		token := access
		if req.URL.Path == pathRefresh {
			token = refresh
		}
		if token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
