// Package server exposes the render pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /v1/version
//	GET  /v1/engines
//	GET  /v1/formats
//	GET  /v1/presets
//	POST /v1/render?format=svg&engine=dot&preset=...
//	POST /v1/layout?engine=dot&preset=...
//	GET  /v1/artifacts?graph=<hash>&limit=n
//	GET  /v1/artifacts/{id}
//
// Request bodies are graph descriptions, JSON by default or TOML when sent
// with Content-Type application/toml. Errors are JSON objects carrying the
// error code and message. Every response has an X-Request-ID header.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gvbind/pkg/pipeline"
	"github.com/matzehuels/gvbind/pkg/store"
)

// DefaultMaxBodyBytes bounds the size of a graph description.
const DefaultMaxBodyBytes = 4 << 20

// Config wires a Server. Runner is required; everything else has a
// default.
type Config struct {
	Runner *pipeline.Runner

	// Store keeps rendered artifacts. Defaults to an in-memory store.
	Store store.Store

	// ArtifactTTL is how long stored artifacts live. Defaults to
	// store.DefaultTTL.
	ArtifactTTL time.Duration

	Logger       *log.Logger
	MaxBodyBytes int64
}

// Server is the HTTP render service.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	ttl     time.Duration
	logger  *log.Logger
	maxBody int64
	router  chi.Router
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		ttl:     cfg.ArtifactTTL,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.ttl <= 0 {
		s.ttl = store.DefaultTTL
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/engines", s.handleEngines)
		r.Get("/formats", s.handleFormats)
		r.Get("/presets", s.handlePresets)
		r.Post("/render", s.handleRender)
		r.Post("/layout", s.handleLayout)
		r.Get("/artifacts", s.handleListArtifacts)
		r.Get("/artifacts/{id}", s.handleGetArtifact)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound("no route for "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed"})
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
