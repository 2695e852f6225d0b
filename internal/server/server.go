// Package server exposes upload and extraction over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tsawler/slidetag/internal/service"
	"github.com/tsawler/slidetag/internal/storage"
)

// Options configure request handling.
type Options struct {
	// MaxUploadBytes bounds uploaded files; 0 means unlimited.
	MaxUploadBytes int64
	// SniffContent rejects uploads whose content does not match their
	// extension.
	SniffContent bool
}

// Server holds the state for the REST API server.
type Server struct {
	svc    *service.Service
	store  *storage.Store
	opts   Options
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(svc *service.Service, store *storage.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	s := &Server{
		svc:    svc,
		store:  store,
		opts:   opts,
		logger: logger.With("component", "http"),
		router: r,
	}
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.POST("/upload/file", s.limitBody(), s.handleUpload)
	api.POST("/extract", s.limitBody(), s.handleExtract)
	api.GET("/uploads/:name", s.handleDownload)
	api.POST("/uploads/:name/extract", s.handleExtractStored)
	api.GET("/tags", s.handleTags)
	api.GET("/tags/resolve", s.handleResolve)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// multipartSlack allows for multipart framing around the file itself.
const multipartSlack = 1 << 20

// limitBody caps the request body so oversized uploads fail while parsing
// instead of filling the disk.
func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+multipartSlack)
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
