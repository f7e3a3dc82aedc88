// Package apimodel holds the JSON shapes exchanged with the queue API.
package apimodel

// LoginRequest is posted to /auth/provider/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is posted to /auth/provider/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// RefreshRequest is posted to /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is the success body of login and refresh.
type TokenResponse struct {
	// AccessToken is the short lived JWT sent as "Authorization: Bearer <token>".
	// Its exp claim drives client side expiry.
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is opaque and rotates on every refresh.
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// MessageBody is the body of simple acknowledgements and failures.
type MessageBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
