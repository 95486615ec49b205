// Package rest exposes the document corpus over HTTP. The surface
// mirrors the CLI: upload and remove documents, search, and ask.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parchment-labs/docq-cli/internal/core/ports/driving"
	"github.com/parchment-labs/docq-cli/internal/logger"
)

// Server serves the HTTP API.
type Server struct {
	ingest    driving.IngestService
	retriever driving.RetrievalService
	answerer  driving.AnswerService
	engine    *gin.Engine
	http      *http.Server
}

// NewServer creates an HTTP server over the given services.
func NewServer(
	ingest driving.IngestService,
	retriever driving.RetrievalService,
	answerer driving.AnswerService,
) *Server {
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		ingest:    ingest,
		retriever: retriever,
		answerer:  answerer,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", s.handleHealth)
	engine.GET("/stats", s.handleStats)
	engine.POST("/query", s.handleQuery)
	engine.POST("/search", s.handleSearch)
	engine.GET("/documents", s.handleListDocuments)
	engine.POST("/documents", s.handleUpload)
	engine.DELETE("/documents/:name", s.handleDelete)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe blocks serving HTTP until the context is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	logger.Info("HTTP API listening on %s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
