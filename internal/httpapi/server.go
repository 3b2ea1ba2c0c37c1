// Package httpapi exposes transcript resolution over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/alnah/yt-transcript/internal/transcript"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests after ctx ends.
const ShutdownTimeout = 30 * time.Second

// Resolver resolves transcript requests.
type Resolver interface {
	Resolve(ctx context.Context, req transcript.Request) (transcript.Result, error)
}

var _ Resolver = (*transcript.Resolver)(nil)

// Server serves the transcript API.
type Server struct {
	resolver    Resolver
	logger      *slog.Logger
	development bool
	version     string
	corsOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDevelopment includes error details in responses.
func WithDevelopment(dev bool) Option {
	return func(s *Server) { s.development = dev }
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithCORSOrigins restricts cross-origin callers to origins. Empty or "*"
// allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = slices.Clone(origins) }
}

// New creates a Server.
func New(resolver Resolver, opts ...Option) *Server {
	s := &Server{
		resolver: resolver,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router. The gin mode is process-global and left to the caller.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestID(), accessLog(s.logger), gin.CustomRecovery(s.recover), cors.New(s.corsConfig()))

	r.GET("/", s.handleHealth)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "Not found"})
	})

	api := r.Group("/api/youtube")
	{
		api.POST("/transcript", s.handleTranscript)
	}
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.corsOrigins
	}
	cfg.AddAllowHeaders(HeaderRequestID)
	cfg.AddExposeHeaders(HeaderRequestID)
	return cfg
}

// Run serves on addr until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) recover(c *gin.Context, rec any) {
	s.logger.Error("panic in handler", "request_id", c.GetString(requestIDKey), "panic", rec)
	body := errorBody{Error: "Internal Server Error"}
	if s.development {
		body.Details = fmt.Sprint(rec)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
