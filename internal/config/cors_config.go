package config

import "strings"

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, o := range a {
		if o == origin {
			return true
		}
	}
	return false
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

func (c mainConfig) GetAllowedOrigins() AllowedOrigins {
	return AllowedOrigins(c.v.GetStringSlice(serverAllowedOriginsKey))
}

func (mainConfig) GetAllowedMethods() []string {
	return []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
}

func (mainConfig) GetAllowedHeaders() []string {
	return []string{"Content-Type", "Authorization"}
}
