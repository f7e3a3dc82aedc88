// Package queuerepo stores the queues served by the development API.
package queuerepo

import (
	"errors"

	"github.com/jrsteele09/go-queue-client/apimodel"
)

var ErrNotFound = errors.New("queue not found")

// ListQuery selects a page of one provider's queues.
type ListQuery struct {
	OwnerID int
	Search  string
	Offset  int
	Limit   int
}

type Repo interface {
	// Create assigns a fresh code to q and stores it.
	Create(q apimodel.Queue) (apimodel.Queue, error)
	Get(code string) (*apimodel.Queue, error)
	// List returns the requested page and the number of matches before
	// paging.
	List(query ListQuery) ([]apimodel.Queue, int, error)
}
