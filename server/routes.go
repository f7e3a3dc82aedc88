package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jrsteele09/go-queue-client/apimodel"
)

func (s *Server) initRoutes() {
	r := chi.NewRouter()
	origins := s.config.GetAllowedOrigins()
	r.Use(s.RecoverMiddleware, s.LoggingMiddleware, cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return origins.IsAllowedOrigin(origin)
		},
		AllowedMethods:   s.config.GetAllowedMethods(),
		AllowedHeaders:   s.config.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	s.router = r

	// Auth
	s.handle(http.MethodPost, apimodel.RouteProviderLogin, s.ProviderLoginHandler())
	s.handle(http.MethodPost, apimodel.RouteProviderRegister, s.ProviderRegisterHandler())
	s.handle(http.MethodPost, apimodel.RouteProviderLogout, ChainMiddleware(s.ProviderLogoutHandler(), s.RequireAuth()))
	s.handle(http.MethodPost, apimodel.RouteRefresh, s.RefreshHandler())

	// Queues
	s.handle(http.MethodGet, apimodel.RouteQueues, ChainMiddleware(s.ListQueuesHandler(), s.RequireAuth()))
	s.handle(http.MethodGet, apimodel.RouteQueue, ChainMiddleware(s.GetQueueHandler(), s.RequireAuth()))
	s.handle(http.MethodPost, apimodel.RouteQueueCreate, ChainMiddleware(s.CreateQueueHandler(), s.RequireAuth()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// handle registers h and counts every request that reaches it.
func (s *Server) handle(method, pattern string, h http.HandlerFunc) {
	route := method + " " + pattern
	s.routes = append(s.routes, route)
	delay := s.latency[route]
	s.router.MethodFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		s.countCall(route)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		h(w, r)
	})
}
