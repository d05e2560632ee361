// Package server provides the HTTP API for doccompare.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/doccompare/internal/compare"
	"github.com/hyperjump/doccompare/internal/config"
	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/report"
	"github.com/hyperjump/doccompare/internal/storage"
)

// requestTimeout bounds one comparison request, recognition included.
const requestTimeout = 10 * time.Minute

// Comparer runs a comparison over uploaded files.
type Comparer interface {
	CompareInputs(ctx context.Context, inputs []compare.Input) (*models.ComparisonReport, error)
}

// Server is the HTTP server for the doccompare API.
type Server struct {
	comparer Comparer
	pdf      *report.PDFRenderer
	cache    storage.Cache
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. pdf and cache may be nil.
func NewServer(
	comparer Comparer,
	pdf *report.PDFRenderer,
	cache storage.Cache,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		comparer: comparer,
		pdf:      pdf,
		cache:    cache,
		config:   cfg,
		logger:   logger,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/compare", s.handleCompare)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
