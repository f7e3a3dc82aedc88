// Package server is a development implementation of the queue API. It
// serves the same routes and envelope responses as the production backend
// so the client can be exercised end to end.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-queue-client/internal/config"
	"github.com/jrsteele09/go-queue-client/server/issuer"
	"github.com/jrsteele09/go-queue-client/server/queuerepo"
	"github.com/jrsteele09/go-queue-client/users"
	"github.com/jrsteele09/go-queue-client/users/repofake"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is the part of config.Config the server reads.
type Config interface {
	config.EnvConfig
	config.ServerConfig
	config.CorsConfig
}

type Server struct {
	env       string
	router    chi.Router
	routes    []string
	config    Config
	issuer    *issuer.Issuer
	providers users.ProviderRepo
	queues    queuerepo.Repo
	logger    zerolog.Logger
	nowFunc   func() time.Time

	// innerStatus answers every request with HTTP 200 and carries the real
	// outcome only in the envelope's status_code.
	innerStatus bool

	latency map[string]time.Duration

	callsLock sync.Mutex
	calls     map[string]int
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

// WithInnerStatus makes every response HTTP 200 with the outcome in the
// envelope only.
func WithInnerStatus(enabled bool) Option {
	return func(s *Server) {
		s.innerStatus = enabled
	}
}

// WithRouteLatency delays every request to route, e.g. "POST /auth/refresh",
// before it is handled.
func WithRouteLatency(route string, d time.Duration) Option {
	return func(s *Server) {
		s.latency[route] = d
	}
}

func WithIssuer(i *issuer.Issuer) Option {
	return func(s *Server) {
		s.issuer = i
	}
}

func WithProviderRepo(repo users.ProviderRepo) Option {
	return func(s *Server) {
		s.providers = repo
	}
}

func WithQueueRepo(repo queuerepo.Repo) Option {
	return func(s *Server) {
		s.queues = repo
	}
}

func New(c Config, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, errors.New("[Server New] config is required")
	}

	s := &Server{
		env:     c.GetEnv(),
		config:  c,
		logger:  log.Logger,
		nowFunc: time.Now,
		latency: make(map[string]time.Duration),
		calls:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.issuer == nil {
		secret := c.GetJWTSecret()
		if secret == "" {
			return nil, errors.New("[Server New] jwt secret is required")
		}
		s.issuer = issuer.New(
			issuer.NewHMACSigner(secret),
			issuer.WithTokenExpiry(c.GetAccessTokenExpiry(), 0),
			issuer.WithNowFunc(s.nowFunc),
		)
	}
	if s.providers == nil {
		s.providers = repofake.NewFakeProviderRepo()
	}
	if s.queues == nil {
		s.queues = queuerepo.NewInMemoryRepo()
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterProvider creates a provider account directly, bypassing the
// register route.
func (s *Server) RegisterProvider(email, password, name, location string) (*users.Provider, error) {
	p, err := users.NewProvider(email, password, name, location, s.nowFunc())
	if err != nil {
		return nil, errors.Wrap(err, "RegisterProvider NewProvider")
	}
	if err := s.providers.Create(p); err != nil {
		return nil, errors.Wrap(err, "RegisterProvider Create")
	}
	return p, nil
}

// Calls returns how many requests reached the handler for route, e.g.
// "POST /auth/refresh".
func (s *Server) Calls(route string) int {
	s.callsLock.Lock()
	defer s.callsLock.Unlock()
	return s.calls[route]
}

func (s *Server) countCall(route string) {
	s.callsLock.Lock()
	defer s.callsLock.Unlock()
	s.calls[route]++
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		s.logger.Debug().Msg(formatRoute(route))
	}
}

func formatRoute(route string) string {
	parts := strings.SplitN(route, " ", 2)
	if len(parts) != 2 {
		return route
	}
	return fmt.Sprintf("[%s] %s", colorMethod(parts[0]), parts[1])
}
