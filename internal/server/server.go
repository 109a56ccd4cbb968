// Package server provides the HTTP API for MedLingua.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/medlingua/medlingua/internal/config"
	"github.com/medlingua/medlingua/internal/glossary"
	"github.com/medlingua/medlingua/internal/pipeline"
	"github.com/medlingua/medlingua/internal/storage"
	"github.com/medlingua/medlingua/internal/translator"
	"github.com/medlingua/medlingua/internal/upload"
)

// Server is the HTTP server for the MedLingua API.
type Server struct {
	pipeline   *pipeline.Pipeline
	translator translator.Translator
	glossary   *glossary.Index
	searcher   *glossary.Searcher
	cache      storage.TranslationCache
	uploads    *upload.Store
	config     *config.ServerConfig
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	pipe *pipeline.Pipeline,
	tr translator.Translator,
	index *glossary.Index,
	searcher *glossary.Searcher,
	cache storage.TranslationCache,
	uploads *upload.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:   pipe,
		translator: tr,
		glossary:   index,
		searcher:   searcher,
		cache:      cache,
		uploads:    uploads,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/translate", s.handleTranslate)
	r.Post("/api/v1/documents/translate", s.handleTranslateDocument)
	r.Get("/api/v1/languages", s.handleLanguages)
	r.Get("/api/v1/glossary/search", s.handleGlossarySearch)
	r.Post("/api/v1/sos", s.handleSOS)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
