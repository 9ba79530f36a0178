// Package server wires middleware and handlers into an HTTP server.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/planthelper/backend/config"
	"github.com/planthelper/backend/internal/api"
	"github.com/planthelper/backend/internal/middleware"
)

// Deps are the collaborators the server is built from. Redis is optional;
// without it requests are not rate limited.
type Deps struct {
	API   api.Dependencies
	Redis *redis.Client
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Uploads up to the request limit stay in memory
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	if deps.Redis != nil {
		limiter := middleware.NewClientRateLimiter(deps.Redis, cfg.RateLimitPerMinute)
		router.Use(limiter.Middleware())
		log.Printf("Rate limiting enabled: %d requests per minute per client", cfg.RateLimitPerMinute)
	}

	if deps.API.MaxUploadBytes == 0 {
		deps.API.MaxUploadBytes = cfg.MaxUploadBytes
	}
	api.RegisterRoutes(router.Group("/"), deps.API)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the server stops.
// A graceful Shutdown makes Start return nil.
func (s *Server) Start() error {
	log.Printf("Server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
