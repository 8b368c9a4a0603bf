// Package server exposes the poster generator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wckerala/framegen/internal/frames"
	"github.com/wckerala/framegen/internal/renderer"
	"github.com/wckerala/framegen/internal/session"
	"github.com/wckerala/framegen/internal/share"
)

// Server serves the form page and the render API. Every request gets its own
// session, so concurrent users never see each other's state.
type Server struct {
	catalog    *frames.Catalog
	resolver   session.Resolver
	compositor *renderer.Compositor
	exporter   *share.Adapter
	assets     fs.FS
	logger     *slog.Logger
	maxUpload  int64
}

// Option configures a Server.
type Option func(*Server)

// WithExporter sets the adapter used by /api/share.
func WithExporter(a *share.Adapter) Option {
	return func(s *Server) { s.exporter = a }
}

// WithLogger sets the request and diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxUpload limits the request body size of the form endpoints. Larger
// bodies are rejected with 413.
func WithMaxUpload(n int64) Option {
	return func(s *Server) { s.maxUpload = n }
}

// New creates a Server.
func New(catalog *frames.Catalog, resolver session.Resolver, compositor *renderer.Compositor, opts ...Option) *Server {
	s := &Server{
		catalog:    catalog,
		resolver:   resolver,
		compositor: compositor,
		assets:     frames.Assets(),
		logger:     slog.Default(),
		maxUpload:  16 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = share.NewAdapter(share.WithLogger(s.logger))
	}
	return s
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.MaxMultipartMemory = s.maxUpload
	r.SetHTMLTemplate(template.Must(template.New("index").Parse(indexPage)))

	r.GET("/", s.index)
	if sub, err := fs.Sub(s.assets, "assets/frames"); err == nil {
		r.StaticFS("/assets/frames", http.FS(sub))
	}

	api := r.Group("/api", limitBody(s.maxUpload))
	{
		api.GET("/health", s.health)
		api.GET("/frames", s.listFrames)
		api.POST("/render", s.render)
		api.POST("/share", s.share)
		api.GET("/qr", s.qr)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KiB
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// limitBody caps the request body at n bytes.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			fail(c, http.StatusRequestEntityTooLarge, &http.MaxBytesError{Limit: n})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

// requestLogger logs every request with its duration.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Debug("request", attrs...)
	}
}
