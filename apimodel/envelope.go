package apimodel

import "encoding/json"

// Envelope wraps every response of the queue API. StatusCode repeats the
// outcome and can disagree with the HTTP status: the API is known to answer
// HTTP 200 with an inner 401.
type Envelope struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
	Total      *int            `json:"total,omitempty"`
	Limit      *int            `json:"limit,omitempty"`
	Offset     *int            `json:"offset,omitempty"`
}
