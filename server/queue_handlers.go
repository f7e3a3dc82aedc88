package server

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-queue-client/apimodel"
	apperrors "github.com/jrsteele09/go-queue-client/internal/errors"
	"github.com/jrsteele09/go-queue-client/internal/utils"
	"github.com/jrsteele09/go-queue-client/server/queuerepo"
	"github.com/jrsteele09/go-queue-client/users"
	"github.com/pkg/errors"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

var queueCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func (s *Server) ListQueuesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := s.requireProvider(w, r)
		if !ok {
			return
		}

		limit, err := intParam(r, "limit", defaultPageLimit)
		if err != nil || limit < 1 || limit > maxPageLimit {
			s.writeDetail(w, http.StatusUnprocessableEntity, "limit must be between 1 and 100")
			return
		}
		offset, err := intParam(r, "offset", 0)
		if err != nil || offset < 0 {
			s.writeDetail(w, http.StatusUnprocessableEntity, "offset must not be negative")
			return
		}

		page, total, err := s.queues.List(queuerepo.ListQuery{
			OwnerID: providerID,
			Search:  r.URL.Query().Get("search"),
			Offset:  offset,
			Limit:   limit,
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("list queues failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not list queues"))
			return
		}
		s.writeJSON(w, http.StatusOK, apimodel.QueueList{
			StatusCode: http.StatusOK,
			Total:      total,
			Body:       page,
			Limit:      utils.Ptr(limit),
			Offset:     utils.Ptr(offset),
		})
	}
}

func (s *Server) GetQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := s.requireProvider(w, r)
		if !ok {
			return
		}

		code := chi.URLParam(r, "code")
		if !queueCodePattern.MatchString(code) {
			s.writeDetail(w, http.StatusUnprocessableEntity, "code must be 6 upper case letters or digits")
			return
		}
		q, err := s.queues.Get(code)
		if errors.Is(err, queuerepo.ErrNotFound) {
			s.writeDetail(w, http.StatusNotFound, "Queue not found")
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Str("code", code).Msg("get queue failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not load queue"))
			return
		}
		if !utils.PointsTo(q.ServiceProviderID, providerID) {
			s.writeDetail(w, http.StatusForbidden, "Forbidden: Cannot get other service provider queues")
			return
		}
		s.writeEnvelope(w, http.StatusOK, q)
	}
}

func (s *Server) CreateQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, ok := s.requireProvider(w, r)
		if !ok {
			return
		}

		var q apimodel.Queue
		if err := decodeJSON(r, &q); err != nil {
			s.writeDetail(w, http.StatusUnprocessableEntity, "invalid queue body")
			return
		}
		// The server owns code and ownership.
		q.Code = ""
		q.ServiceProviderID = nil
		if err := q.Validate(); err != nil {
			s.writeDetail(w, http.StatusUnprocessableEntity, apperrors.InfoOf(err).Message)
			return
		}
		q.ServiceProviderID = utils.Ptr(providerID)

		created, err := s.queues.Create(q)
		if err != nil {
			s.logger.Error().Err(err).Msg("create queue failed")
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody("could not create queue"))
			return
		}
		s.logger.Debug().Str("code", created.Code).Int("provider_id", providerID).Msg("queue created")
		s.writeEnvelope(w, http.StatusOK, apimodel.CreatedQueue{QueueCode: created.Code})
	}
}

// requireProvider resolves the authenticated provider and writes the
// rejection itself when there is none.
func (s *Server) requireProvider(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := providerIDFrom(r.Context())
	if !ok {
		s.writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return 0, false
	}
	if _, err := s.providers.GetByID(id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.writeDetail(w, http.StatusNotFound, "Service provider not found")
		} else {
			s.writeEnvelope(w, http.StatusInternalServerError, errorBody(err.Error()))
		}
		return 0, false
	}
	return id, true
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
