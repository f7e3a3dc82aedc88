// Package issuer mints and validates the tokens handed out by the
// development queue API: HS256 access tokens carrying an exp claim and
// opaque refresh tokens that rotate on every use.
package issuer

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Pair is an access token and the refresh token issued with it.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Claims are the validated fields of an access token.
type Claims struct {
	Subject   string
	JTI       string
	ExpiresAt time.Time
}

type Issuer struct {
	signer             Signer
	refreshRepo        RefreshTokenRepo
	revokedCache       RevokedTokenCache
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	refreshTokenLength int
	nowFunc            func() time.Time
}

type Option func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) Option {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithIssuer(issuer string) Option {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func WithRefreshTokenRepo(repo RefreshTokenRepo) Option {
	return func(i *Issuer) {
		i.refreshRepo = repo
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) Option {
	return func(i *Issuer) {
		i.revokedCache = cache
	}
}

func New(signer Signer, options ...Option) *Issuer {
	i := &Issuer{
		signer:             signer,
		refreshRepo:        NewInMemoryRefreshTokenRepo(),
		revokedCache:       NewRevokedTokenCache(),
		issuer:             "queue-dev-api",
		refreshTokenLength: 32, // 256 bits
	}

	for _, opt := range options {
		opt(i)
	}

	if i.accessTokenExpiry == 0 {
		i.accessTokenExpiry = 30 * time.Minute
	}
	if i.refreshTokenExpiry == 0 {
		i.refreshTokenExpiry = 7 * 24 * time.Hour
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// Issue creates a fresh pair for userID, replacing any refresh token the
// user already holds.
func (i *Issuer) Issue(userID string) (Pair, error) {
	access, err := i.createAccessToken(userID)
	if err != nil {
		return Pair{}, errors.Wrap(err, "Issuer.Issue createAccessToken")
	}
	refresh, err := i.createRefreshToken(userID)
	if err != nil {
		return Pair{}, errors.Wrap(err, "Issuer.Issue createRefreshToken")
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token is
// consumed whether or not it has expired.
func (i *Issuer) Rotate(refreshToken string) (Pair, error) {
	stored, err := i.refreshRepo.Get(strings.TrimSpace(refreshToken))
	if err != nil {
		return Pair{}, err
	}
	if err := i.refreshRepo.Delete(stored.Token); err != nil {
		return Pair{}, errors.Wrap(err, "Issuer.Rotate Delete")
	}
	if i.nowFunc().Sub(stored.Iat) > i.refreshTokenExpiry {
		return Pair{}, ErrRefreshTokenExpired
	}
	return i.Issue(stored.UserID)
}

// Validate verifies the signature, expiry and revocation state of an
// access token.
func (i *Issuer) Validate(accessToken string) (*Claims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidToken
	}

	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(accessToken, &claims, i.signer.GetVerificationKey, jwt.WithTimeFunc(i.nowFunc), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, errors.Wrap(ErrInvalidToken, errString(err))
	}
	if claims.ID != "" && i.revokedCache.IsRevoked(claims.ID, i.nowFunc()) {
		return nil, ErrTokenRevoked
	}

	return &Claims{
		Subject:   claims.Subject,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates the access token and the user's refresh token.
func (i *Issuer) Revoke(claims *Claims) error {
	if claims == nil {
		return ErrInvalidToken
	}
	if err := i.revokedCache.Add(claims.JTI, claims.ExpiresAt); err != nil {
		return errors.Wrap(err, "Issuer.Revoke Add")
	}
	if existing, err := i.refreshRepo.GetByUserID(claims.Subject); err == nil && existing != nil {
		if err := i.refreshRepo.Delete(existing.Token); err != nil {
			return errors.Wrap(err, "Issuer.Revoke Delete")
		}
	}
	return nil
}

func (i *Issuer) createAccessToken(userID string) (string, error) {
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"iss": i.issuer,
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(i.accessTokenExpiry).Unix(),
		"jti": uuid.New().String(), // Unique token ID for revocation
	}
	return i.signer.Sign(claims)
}

func (i *Issuer) createRefreshToken(userID string) (string, error) {
	if existing, err := i.refreshRepo.GetByUserID(userID); err == nil && existing != nil {
		if err := i.refreshRepo.Delete(existing.Token); err != nil {
			return "", errors.Wrap(err, "delete existing refresh token")
		}
	}

	tokenBytes := make([]byte, i.refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := i.refreshRepo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    i.nowFunc(),
	}); err != nil {
		return "", errors.Wrap(err, "store refresh token")
	}
	return tokenStr, nil
}

func errString(err error) string {
	if err == nil {
		return "token not valid"
	}
	return err.Error()
}
