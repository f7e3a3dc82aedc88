package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/utils"
	"github.com/jrsteele09/go-queue-client/server/issuer"
	"github.com/jrsteele09/go-queue-client/users"
	"github.com/pkg/errors"
)

func tokenResponse(pair issuer.Pair) apimodel.TokenResponse {
	return apimodel.TokenResponse{
		AccessToken:  utils.Ptr(pair.AccessToken),
		RefreshToken: utils.Ptr(pair.RefreshToken),
	}
}

func (s *Server) ProviderLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
			s.writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
			return
		}

		provider, err := s.providers.GetByEmail(req.Email)
		if errors.Is(err, users.ErrNotFound) {
			s.writeEnvelope(w, http.StatusNotFound, errorBody("Email not registered"))
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("provider lookup failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody(err.Error()))
			return
		}
		if !provider.CheckPassword(req.Password) {
			s.writeEnvelope(w, http.StatusUnauthorized, errorBody("Invalid password"))
			return
		}

		pair, err := s.issuer.Issue(strconv.Itoa(provider.ID))
		if err != nil {
			s.logger.Error().Err(err).Msg("issue tokens failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not issue tokens"))
			return
		}
		if err := s.providers.SetLoggedIn(provider.ID, true); err != nil {
			s.logger.Warn().Err(err).Int("provider_id", provider.ID).Msg("mark provider logged in")
		}
		s.writeEnvelope(w, http.StatusOK, tokenResponse(pair))
	}
}

func (s *Server) ProviderRegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.RegisterRequest
		if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
			s.writeDetail(w, http.StatusUnprocessableEntity, "email and password are required")
			return
		}

		_, err := s.RegisterProvider(req.Email, req.Password, req.Name, req.Location)
		if errors.Is(err, users.ErrEmailExists) {
			s.writeEnvelope(w, http.StatusConflict, errorBody("Email already registered"))
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("register provider failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody(err.Error()))
			return
		}
		s.writeEnvelope(w, http.StatusCreated, messageBody("Service provider registered successfully"))
	}
}

func (s *Server) ProviderLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			s.writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if err := s.issuer.Revoke(claims); err != nil {
			s.logger.Error().Err(err).Msg("revoke token failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not revoke token"))
			return
		}
		if id, ok := providerIDFrom(r.Context()); ok {
			if err := s.providers.SetLoggedIn(id, false); err != nil {
				s.logger.Warn().Err(err).Int("provider_id", id).Msg("mark provider logged out")
			}
		}
		s.writeEnvelope(w, http.StatusOK, messageBody("Service provider logged out successfully"))
	}
}

// RefreshHandler rotates a refresh token. The presented token is consumed,
// so replaying it fails.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.RefreshRequest
		if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
			s.writeDetail(w, http.StatusUnprocessableEntity, "refresh_token is required")
			return
		}

		pair, err := s.issuer.Rotate(req.RefreshToken)
		switch {
		case errors.Is(err, issuer.ErrRefreshTokenNotFound):
			s.writeEnvelope(w, http.StatusUnauthorized, errorBody("Invalid refresh token"))
			return
		case errors.Is(err, issuer.ErrRefreshTokenExpired):
			s.writeEnvelope(w, http.StatusUnauthorized, errorBody("Refresh token expired"))
			return
		case err != nil:
			s.logger.Error().Err(err).Msg("rotate refresh token failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not refresh tokens"))
			return
		}
		s.writeEnvelope(w, http.StatusOK, tokenResponse(pair))
	}
}
