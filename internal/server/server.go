package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cyberwithaman/digicon/internal/config"
	"github.com/cyberwithaman/digicon/internal/middleware"
	"github.com/cyberwithaman/digicon/internal/security"
	"github.com/cyberwithaman/digicon/internal/share"
)

// Resolver maps a share link token to a local report file.
type Resolver interface {
	Resolve(token string) (string, error)
}

type HTTPServer struct {
	engine   *gin.Engine
	server   *http.Server
	resolver Resolver
	log      zerolog.Logger
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, resolver Resolver) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
	)

	s := &HTTPServer{
		engine:   engine,
		resolver: resolver,
		log:      log,
	}

	engine.GET("/healthz", s.health)
	engine.GET("/reports/:token", s.report)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("share server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("share server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) report(c *gin.Context) {
	path, err := s.resolver.Resolve(c.Param("token"))
	switch {
	case err == nil:
	case errors.Is(err, security.ErrInvalidShareToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	case errors.Is(err, share.ErrNotShared):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	default:
		s.log.Error().Err(err).Str("request_id", middleware.RequestIDFrom(c)).Msg("resolve shared report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	c.Header("Cache-Control", "private, no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(path)
}
