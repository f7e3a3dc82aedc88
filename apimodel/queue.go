package apimodel

import (
	"strings"

	"github.com/jrsteele09/go-queue-client/internal/errors"
)

// Queue is a queue resource. Code is assigned by the server and is the
// only identity; two queues with the same Code are the same queue.
type Queue struct {
	Code              string `json:"code,omitempty"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	IsOpen            bool   `json:"is_open"`
	MaxBlockCapacity  int    `json:"max_block_capacity"`
	MaxPartyCapacity  int    `json:"max_party_capacity"`
	Size              int    `json:"size"`
	WaitTimeEstimate  string `json:"wait_time_estimate"`
	ManualDispatch    bool   `json:"manual_dispatch"`
	ImageURL          string `json:"image_url"`
	ServiceProviderID *int   `json:"service_provider_id,omitempty"`
}

// Validate checks a queue descriptor before it is created.
func (q Queue) Validate() error {
	const op = "Queue.Validate"
	switch {
	case strings.TrimSpace(q.Code) != "":
		return errors.New(errors.KindValidation, op, "code is assigned by the server")
	case strings.TrimSpace(q.Name) == "":
		return errors.New(errors.KindValidation, op, "name is required")
	case q.MaxBlockCapacity <= 0:
		return errors.New(errors.KindValidation, op, "max_block_capacity must be positive")
	case q.MaxPartyCapacity <= 0:
		return errors.New(errors.KindValidation, op, "max_party_capacity must be positive")
	case q.Size < 0:
		return errors.New(errors.KindValidation, op, "size must not be negative")
	}
	return nil
}

// QueueList is the enveloped list response.
type QueueList struct {
	StatusCode int     `json:"status_code"`
	Total      int     `json:"total"`
	Body       []Queue `json:"body"`
	Limit      *int    `json:"limit,omitempty"`
	Offset     *int    `json:"offset,omitempty"`
}

// CreatedQueue is the body returned by /queue/create.
type CreatedQueue struct {
	QueueCode string `json:"queue_code"`
}
