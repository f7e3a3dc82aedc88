// Package queues reads and creates queue resources on behalf of an
// authenticated session.
package queues

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-queue-client/apiclient"
	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/errors"
	"github.com/jrsteele09/go-queue-client/internal/querystate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultLimit is the page size of DefaultPageQuery.
const DefaultLimit = 50

type Queue = apimodel.Queue

// NewQueue returns a descriptor with the defaults used for a new queue.
func NewQueue(name string) Queue {
	return Queue{
		Name:             name,
		IsOpen:           true,
		MaxBlockCapacity: 100,
		MaxPartyCapacity: 10,
		Size:             0,
		WaitTimeEstimate: "0 mins",
		ManualDispatch:   true,
	}
}

type Operation string

const (
	OpFetchPage Operation = "fetch_page"
	OpGetByKey  Operation = "get_by_key"
	OpCreate    Operation = "create"
)

// PageQuery selects a page of queues. Limit bounds the returned items, so a
// zero Limit yields an empty page that still carries the total.
type PageQuery struct {
	Search string
	Limit  int
	Offset int
}

// DefaultPageQuery is the first page at DefaultLimit.
func DefaultPageQuery() PageQuery {
	return PageQuery{Limit: DefaultLimit}
}

// Page is one page of results. Total counts every match regardless of the
// page bounds.
type Page struct {
	Items []Queue
	Total int
}

// Client is stateless apart from per operation query state. It never
// caches results, so callers re-fetch after Create.
type Client struct {
	rest   *apiclient.Client
	tokens oauth2.TokenSource
	logger zerolog.Logger
	status *querystate.Set
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client. tokens supplies the bearer token for every call;
// session.Manager satisfies it.
func New(rest *apiclient.Client, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	if rest == nil {
		return nil, errors.New(errors.KindValidation, "queues.New", "api client is required")
	}
	if tokens == nil {
		return nil, errors.New(errors.KindValidation, "queues.New", "token source is required")
	}
	c := &Client{
		rest:   rest,
		tokens: tokens,
		logger: log.Logger,
		status: querystate.NewSet(string(OpFetchPage), string(OpGetByKey), string(OpCreate)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status returns the loading and error state of the latest call to op.
func (c *Client) Status(op Operation) querystate.Snapshot {
	return c.status.Snapshot(string(op))
}

// FetchPage returns one page of queues matching q.Search.
func (c *Client) FetchPage(ctx context.Context, q PageQuery) (page Page, err error) {
	const op = "queues.FetchPage"
	ticket := c.status.Begin(string(OpFetchPage))
	defer func() { ticket.Settle(err) }()

	if q.Limit < 0 || q.Offset < 0 {
		return Page{}, errors.New(errors.KindValidation, op, "limit and offset must not be negative")
	}
	limit := q.Limit
	// The API accepts limits from 1; a zero limit asks for one item and
	// keeps only the total.
	requested := max(limit, 1)

	tok, err := c.token(op)
	if err != nil {
		return Page{}, err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(requested))
	query.Set("offset", strconv.Itoa(q.Offset))
	if search := strings.TrimSpace(q.Search); search != "" {
		query.Set("search", search)
	}

	resp, err := c.rest.Do(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodGet,
		Path:           apimodel.RouteQueues,
		Query:          query,
		Token:          tok,
		FailureMessage: "Failed to fetch queues",
	})
	if err != nil {
		return Page{}, err
	}

	page, err = decodePage(op, resp)
	if err != nil {
		return Page{}, err
	}
	if len(page.Items) > requested {
		c.logger.Warn().Int("limit", requested).Int("received", len(page.Items)).Msg("server returned more queues than requested, truncating")
	}
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
	}
	if !ticket.Current() {
		c.logger.Debug().Msg("fetch superseded by a newer call")
	}
	return page, nil
}

type itemsBody struct {
	Items *[]Queue `json:"items"`
	Total *int     `json:"total"`
}

// decodePage accepts both {items, total} and the enveloped
// {status_code, body: [...], total} list shapes.
func decodePage(op string, resp *apiclient.Response) (Page, error) {
	body := strings.TrimSpace(string(resp.Body))
	if resp.Envelope != nil && strings.HasPrefix(body, "[") {
		var items []Queue
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			return Page{}, errors.New(errors.KindValidation, op, "unexpected queue list shape")
		}
		if resp.Envelope.Total == nil {
			return Page{}, errors.New(errors.KindValidation, op, "queue list has no total")
		}
		return Page{Items: items, Total: *resp.Envelope.Total}, nil
	}

	var b itemsBody
	if err := resp.Decode(&b); err != nil {
		return Page{}, err
	}
	if b.Items == nil || b.Total == nil {
		return Page{}, errors.New(errors.KindValidation, op, "queue list must contain items and total")
	}
	return Page{Items: *b.Items, Total: *b.Total}, nil
}

// GetByKey fetches one queue. A queue the server does not know is reported
// as (nil, nil).
func (c *Client) GetByKey(ctx context.Context, code string) (queue *Queue, err error) {
	const op = "queues.GetByKey"
	ticket := c.status.Begin(string(OpGetByKey))
	defer func() { ticket.Settle(err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New(errors.KindValidation, op, "queue code is required")
	}
	tok, err := c.token(op)
	if err != nil {
		return nil, err
	}

	resp, err := c.rest.Do(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodGet,
		Path:           "/queues/" + url.PathEscape(code),
		Token:          tok,
		FailureMessage: "Failed to fetch queue",
	})
	if errors.Is(err, errors.ErrNotFound) {
		c.logger.Debug().Str("code", code).Msg("queue not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var q Queue
	if err := resp.Decode(&q); err != nil {
		return nil, err
	}
	if q.Code == "" {
		return nil, errors.New(errors.KindValidation, op, "queue has no code")
	}
	return &q, nil
}

// Create submits a new queue. Pages already returned are not touched.
func (c *Client) Create(ctx context.Context, q Queue) (err error) {
	const op = "queues.Create"
	ticket := c.status.Begin(string(OpCreate))
	defer func() { ticket.Settle(err) }()

	if err := q.Validate(); err != nil {
		return errors.Wrap(errors.KindValidation, op, err)
	}
	tok, err := c.token(op)
	if err != nil {
		return err
	}

	resp, err := c.rest.Do(ctx, apiclient.Request{
		Op:             op,
		Method:         http.MethodPost,
		Path:           apimodel.RouteQueueCreate,
		Body:           q,
		Token:          tok,
		FailureMessage: "Failed to create queue",
	})
	if err != nil {
		return err
	}

	var created apimodel.CreatedQueue
	if decodeErr := resp.Decode(&created); decodeErr == nil && created.QueueCode != "" {
		c.logger.Info().Str("code", created.QueueCode).Str("name", q.Name).Msg("created queue")
	} else {
		c.logger.Info().Str("name", q.Name).Msg("created queue")
	}
	return nil
}

func (c *Client) token(op string) (*oauth2.Token, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return nil, errors.Wrap(errors.KindUnauthenticated, op, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.New(errors.KindUnauthenticated, op, "not authenticated")
	}
	return tok, nil
}
