package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-queue-client/server/issuer"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyProviderID stores the authenticated provider ID
	ContextKeyProviderID ContextKey = "provider_id"
	// ContextKeyClaims stores the validated token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth validates the bearer access token and injects the provider ID
// and claims into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				s.writeDetail(w, http.StatusForbidden, "Not authenticated")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				s.writeDetail(w, http.StatusForbidden, "Invalid authentication credentials")
				return
			}

			claims, err := s.issuer.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				s.logger.Debug().Err(err).Msg("rejected access token")
				s.writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			providerID, err := strconv.Atoi(claims.Subject)
			if err != nil {
				s.writeDetail(w, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyProviderID, providerID)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

func providerIDFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(ContextKeyProviderID).(int)
	return id, ok
}

func claimsFrom(ctx context.Context) (*issuer.Claims, bool) {
	c, ok := ctx.Value(ContextKeyClaims).(*issuer.Claims)
	return c, ok
}
