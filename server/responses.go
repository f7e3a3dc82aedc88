package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-queue-client/apimodel"
)

func errorBody(msg string) apimodel.MessageBody {
	return apimodel.MessageBody{Error: msg}
}

func messageBody(msg string) apimodel.MessageBody {
	return apimodel.MessageBody{Message: msg}
}

// httpStatus is the transport status used for an outcome.
func (s *Server) httpStatus(status int) int {
	if s.innerStatus {
		return http.StatusOK
	}
	return status
}

// writeEnvelope answers with {status_code, body}.
func (s *Server) writeEnvelope(w http.ResponseWriter, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode response body")
		status, raw = http.StatusInternalServerError, []byte(`{"error":"internal server error"}`)
	}
	s.writeJSON(w, status, apimodel.Envelope{StatusCode: status, Body: raw})
}

// writeDetail answers like a framework level rejection: {"detail": msg}.
// In inner status mode it is wrapped in an envelope instead.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	if s.innerStatus {
		s.writeEnvelope(w, status, errorBody(detail))
		return
	}
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.httpStatus(status))
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("write response")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
