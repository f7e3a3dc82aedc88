// Package users holds the service provider accounts known to the
// development API.
package users

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound    = errors.New("provider not found")
	ErrEmailExists = errors.New("email already registered")
)

// Provider is an account that owns queues. ID is what queues reference as
// service_provider_id.
type Provider struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	DateJoined   time.Time `json:"date_joined"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	LoggedIn     bool      `json:"logged_in,omitempty"`
}

// NewProvider hashes password and returns an account ready to be created.
func NewProvider(email, password, name, location string, now time.Time) (*Provider, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Provider{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Location:     strings.TrimSpace(location),
		DateJoined:   now,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks password against the provider's stored hash.
func (p *Provider) CheckPassword(password string) bool {
	return CheckPasswordHash(password, p.PasswordHash)
}
