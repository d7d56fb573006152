package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"jabberwocky238/houselist/listing"

	"github.com/gin-gonic/gin"
)

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	Listen    string
	AuthToken string // Bearer token; empty disables auth.
}

// Server exposes a listing.Session over HTTP.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
}

// NewServer creates a new HTTP server wired to the given session.
func NewServer(cfg ServerConfig, session *listing.Session) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware())

	// Public endpoints (no auth).
	engine.GET("/health", HealthHandler)
	engine.GET("/status", StatusHandler(session))

	h := NewListingHandler(session)

	houses := engine.Group("/houses")
	houses.Use(AuthMiddleware(cfg.AuthToken))
	{
		houses.GET("", h.ListHouses)
		houses.POST("/remove", h.RemoveHouse)
		houses.POST("/reload", h.Reload)
	}

	search := engine.Group("/search")
	search.Use(AuthMiddleware(cfg.AuthToken))
	{
		search.GET("", h.GetSearch)
		search.POST("", h.SetSearch)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Listen,
			Handler: engine,
		},
		engine: engine,
	}
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server with a 5-second deadline.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

// Engine returns the underlying Gin engine (useful for testing).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
