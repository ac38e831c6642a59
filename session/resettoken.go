package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResetTokenClaims are advisory values read from the emailed reset token.
// The signature is NOT verified: email is for display and exp for a
// client-side expiry pre-check only. The server re-validates the token on
// every reset call and remains authoritative.
type ResetTokenClaims struct {
	Email     string
	ExpiresAt time.Time
}

// DecodeResetToken decodes the token's claims without verifying them.
func DecodeResetToken(token string) (*ResetTokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decoding reset token: %w", err)
	}

	out := &ResetTokenClaims{}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
