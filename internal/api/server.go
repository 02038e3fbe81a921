// SPDX-License-Identifier: MIT

// Package api implements the beatfunc HTTP surface: the two processing
// endpoints, the health probes, and the ingress middleware stack.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dhsavell/beat-func/internal/api/middleware"
	"github.com/dhsavell/beat-func/internal/beats"
	"github.com/dhsavell/beat-func/internal/beats/effects"
	"github.com/dhsavell/beat-func/internal/health"
)

// Processor runs a full song processing job.
type Processor interface {
	Process(ctx context.Context, path string, fx []effects.Effect, settings beats.Settings, w io.Writer) error
}

// Downloader fetches remote audio into the work dir.
type Downloader interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Config holds the API server settings.
type Config struct {
	// WorkDir receives spooled uploads and downloads.
	WorkDir string

	// MaxEffects caps the effect chain length per request.
	MaxEffects int

	// MaxUploadBytes caps the multipart body. Zero means 64 MiB.
	MaxUploadBytes int64

	AllowedOrigins []string

	// RateLimit requests per RateWindow per client IP. Zero disables.
	RateLimit  int
	RateWindow time.Duration

	// TracingService enables otelhttp instrumentation when non-empty.
	TracingService string
}

// Server wires handlers, middleware and dependencies together.
type Server struct {
	cfg        Config
	processor  Processor
	downloader Downloader
	router     *chi.Mux
}

// New constructs the API server and its routes.
func New(cfg Config, processor Processor, downloader Downloader, healthMgr *health.Manager) *Server {
	if cfg.MaxEffects <= 0 {
		cfg.MaxEffects = 5
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}

	s := &Server{
		cfg:        cfg,
		processor:  processor,
		downloader: downloader,
	}

	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  true,
		TracingService: cfg.TracingService,
		EnableLogging:  true,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
	})

	r.Post("/", s.handleProcessUpload)
	r.Post("/yt", s.handleProcessYouTube)
	r.Get("/healthz", healthMgr.ServeHealth)
	r.Get("/readyz", healthMgr.ServeReady)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}
