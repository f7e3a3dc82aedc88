// Package token holds the client side view of the credentials issued by
// the queue API and the storage contract used to persist them.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrMissingExpiry is returned for access tokens without an exp claim.
var ErrMissingExpiry = errors.New("token has no exp claim")

// Token is an opaque signed credential as received from the server.
type Token string

func (t Token) String() string {
	return string(t)
}

func (t Token) Empty() bool {
	return strings.TrimSpace(string(t)) == ""
}

// Expiry decodes the exp claim without verifying the signature. The client
// has no key to verify with; the server remains the authority.
func (t Token) Expiry() (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(t), &claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Pair is an access token and the refresh token issued alongside it.
type Pair struct {
	Access  Token
	Refresh Token
}

func (p Pair) Complete() bool {
	return !p.Access.Empty() && !p.Refresh.Empty()
}

// OAuth2 converts the pair into an oauth2.Token so it can be handed to
// anything that consumes an oauth2.TokenSource.
func (p Pair) OAuth2() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  p.Access.String(),
		RefreshToken: p.Refresh.String(),
		TokenType:    "Bearer",
	}
	if exp, err := p.Access.Expiry(); err == nil {
		t.Expiry = exp
	}
	return t
}
