package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	serverPortKey           = "server.port"
	serverJWTSecretKey      = "server.jwt_secret"
	serverAccessExpiryKey   = "server.access_token_expiry"
	serverAllowedOriginsKey = "server.allowed_origins"
)

// ServerConfig configures the development queue API.
type ServerConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
}

func (c mainConfig) GetPort() string {
	port := strings.TrimSpace(c.v.GetString(serverPortKey))
	if port != "" && !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (c mainConfig) GetJWTSecret() string {
	return c.v.GetString(serverJWTSecretKey)
}

func (c mainConfig) GetAccessTokenExpiry() time.Duration {
	return c.v.GetDuration(serverAccessExpiryKey)
}
