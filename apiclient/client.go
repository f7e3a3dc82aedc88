// Package apiclient is the HTTP/JSON boundary shared by the session manager
// and the resource client. It unwraps the API's response envelope, validates
// the body shape and turns every failure into a typed errors.Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-queue-client/apimodel"
	"github.com/jrsteele09/go-queue-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client wraps http.Client with base URL handling and error mapping.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request. Zero disables the client side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request describes one API call.
type Request struct {
	// Op names the calling operation in returned errors.
	Op     string
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when non-nil.
	Body any
	// Token, when set, is sent as the Authorization header.
	Token *oauth2.Token
	// FailureMessage is used when the server does not supply one.
	FailureMessage string
}

// Response is a successful (2xx) response with the envelope removed.
type Response struct {
	// Status is the effective status: the envelope's status_code when the
	// transport status was 2xx, otherwise the HTTP status.
	Status     int
	HTTPStatus int
	// Body is the envelope's body, or the whole payload when not enveloped.
	Body     json.RawMessage
	Envelope *apimodel.Envelope
	op       string
}

// Do sends the request. Non-2xx outcomes are returned as *errors.Error with
// the kind chosen by KindForStatus and Status set.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	op := r.Op
	if op == "" {
		op = "apiclient.Do"
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, op, err)
	}

	c.logger.Debug().Str("op", op).Str("method", req.Method).Str("url", req.URL.String()).Msg("api request")

	res, err := c.http.Do(req)
	if err != nil {
		msg := "request failed"
		if ctx.Err() == context.DeadlineExceeded {
			msg = "request timed out"
		}
		return nil, &errors.Error{Kind: errors.KindNetwork, Op: op, Message: msg, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &errors.Error{Kind: errors.KindNetwork, Op: op, Status: res.StatusCode, Message: "reading response failed", Err: err}
	}

	resp := &Response{Status: res.StatusCode, HTTPStatus: res.StatusCode, Body: raw, op: op}
	if env, ok := parseEnvelope(raw); ok {
		resp.Envelope = env
		resp.Body = env.Body
		if isSuccess(res.StatusCode) && env.StatusCode != 0 {
			resp.Status = env.StatusCode
		}
	}

	c.logger.Debug().Str("op", op).Int("status", resp.Status).Int("http_status", res.StatusCode).Msg("api response")

	if !isSuccess(resp.Status) {
		msg := serverMessage(raw)
		if msg == "" {
			msg = r.FailureMessage
		}
		if msg == "" {
			msg = fmt.Sprintf("unexpected response %d", resp.Status)
		}
		return nil, &errors.Error{Kind: KindForStatus(resp.Status), Op: op, Status: resp.Status, Message: msg}
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	path := strings.TrimSpace(r.Path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != nil && r.Token.AccessToken != "" {
		r.Token.SetAuthHeader(req)
	}
	return req, nil
}

// Decode unmarshals the response body into v. An empty body or a shape that
// does not match v is a validation error.
func (r *Response) Decode(v any) error {
	trimmed := bytes.TrimSpace(r.Body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errors.New(errors.KindValidation, r.op, "empty response body").WithStatus(r.Status)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return (&errors.Error{Kind: errors.KindValidation, Op: r.op, Message: "unexpected response shape", Err: err}).WithStatus(r.Status)
	}
	return nil
}

// KindForStatus maps a non-2xx status to an error kind.
func KindForStatus(status int) errors.Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.KindAuth
	case http.StatusNotFound:
		return errors.KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return errors.KindValidation
	default:
		return errors.KindNetwork
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
