// Package server assembles the HTTP API: the public authorization
// endpoints, the demo routes behind the client-injection middleware, and
// the server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/auth"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/config"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
)

// Timeouts for the HTTP server. Handler responses can legitimately take a
// while since some endpoints block on asynchronous Canva jobs.
const (
	readHeaderTimeout = 10 * time.Second
	requestTimeout    = 3 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

// Demo is implemented by each demo backend. Public routes are reachable
// without authorization; protected routes run behind the client-injection
// middleware and can take an authenticated API client from the request
// context.
type Demo interface {
	PublicRoutes(r chi.Router)
	ProtectedRoutes(r chi.Router)
}

// NewRouter builds the full route tree for one demo.
func NewRouter(cfg *config.Config, flow *auth.Flow, mw *auth.Middleware, demo Demo) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors(cfg.FrontendURL))

	r.Group(func(r chi.Router) {
		flow.Routes(r)
		demo.PublicRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.InjectClient)
		demo.ProtectedRoutes(r)
	})

	return r
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Server is the demo's HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates a server listening on the configured backend port.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.BackendPort,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// Start runs the server until the context is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Infof("server stopped")
	return nil
}
