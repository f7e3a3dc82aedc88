// Package tokentest builds signed tokens for tests.
package tokentest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-queue-client/token"
)

const secret = "tokentest-secret"

// Signed returns an HS256 token for subject expiring at exp.
func Signed(tb testing.TB, subject string, exp time.Time) token.Token {
	tb.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
		"iat": exp.Add(-time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		tb.Fatalf("sign token: %v", err)
	}
	return token.Token(s)
}

// WithoutExpiry returns an HS256 token that has no exp claim.
func WithoutExpiry(tb testing.TB, subject string) token.Token {
	tb.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject}).SignedString([]byte(secret))
	if err != nil {
		tb.Fatalf("sign token: %v", err)
	}
	return token.Token(s)
}
