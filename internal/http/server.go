// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReadinessCheck reports whether a dependency is ready to serve. A nil error
// means ready.
type ReadinessCheck func(ctx context.Context) error

// Server represents the API HTTP server.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
	ready  ReadinessCheck
}

// NewServer creates a new API server with the standard middleware stack:
// recovery, request IDs, structured request logging, and optional CORS.
// Routes beyond health and readiness are registered by the callers via Router.
func NewServer(
	host string,
	port int,
	logger *slog.Logger,
	corsEnabled bool,
	corsAllowOrigins string,
	ready ReadinessCheck,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(corsEnabled, corsAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	server := &Server{
		router: router,
		logger: logger,
		ready:  ready,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	router.GET("/health", server.healthHandler)
	router.GET("/ready", server.readinessHandler)

	return server
}

// Router returns the underlying router for route registration and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the credential store is ready to serve.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"components": gin.H{"credential_store": "error"},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"credential_store": "ok"},
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
