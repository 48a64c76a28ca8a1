// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the conversion pipeline over HTTP. Uploads arrive as
// multipart forms; results are returned as JSON or as a Markdown download.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// ServiceName is reported by the health endpoints.
const ServiceName = "pdfmd"

// Converter converts an uploaded PDF.
type Converter interface {
	ConvertBytes(ctx context.Context, data []byte, filename string, opts types.OutputOptions) types.ConversionResult
}

// Server is the HTTP front end. Every request gets its own copy of the
// default output options.
type Server struct {
	conv     Converter
	cfg      types.ServerConfig
	defaults types.OutputOptions
	maxBytes int64
	version  string
	logger   *logrus.Logger
}

// New returns a Server for conv using the server, processing and default
// option settings in cfg.
func New(conv Converter, cfg types.Config, version string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		conv:     conv,
		cfg:      cfg.Server,
		defaults: cfg.Processing.Defaults,
		maxBytes: cfg.Processing.MaxPDFSize,
		version:  version,
		logger:   logger,
	}
}

// Handler returns the routed handler with request IDs, logging, CORS and,
// on the conversion routes, bearer authentication.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /parse-pdf", s.requireToken(http.HandlerFunc(s.handleParse)))
	mux.Handle("POST /parse-pdf-file", s.requireToken(http.HandlerFunc(s.handleParseFile)))

	return s.withRequestID(s.withLogging(s.withCORS(mux)))
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.APIKey == "" {
		s.logger.Warn("no API key configured, every conversion request will be rejected")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	if s.cfg.RequestTimeout <= 0 {
		srv.WriteTimeout = 0
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	s.logger.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
