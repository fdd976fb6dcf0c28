// Package server exposes vidsum pipelines over HTTP. Each browser session,
// identified by a cookie, gets its own Pipeline; sessions live in a bounded
// LRU and are closed when evicted.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	vidsum "github.com/alnah/go-vidsum"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "vidsum_session"

// Defaults.
const (
	DefaultMaxSessions    = 128
	DefaultMaxUploadBytes = 512 << 20
	DefaultArtifactBase   = "/artifacts"
	DefaultSubmitTimeout  = 15 * time.Minute
	shutdownTimeout       = 10 * time.Second
	multipartMemory       = 32 << 20
)

// PipelineFactory builds the Pipeline of a new session.
type PipelineFactory func() (*vidsum.Pipeline, error)

// Server routes requests to per-session pipelines.
type Server struct {
	factory        PipelineFactory
	logger         *slog.Logger
	maxSessions    int
	maxUploadBytes int64
	artifactBase   string
	submitTimeout  time.Duration

	sessions *lru.Cache[string, *vidsum.Pipeline]
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxUploadBytes bounds the size of uploaded files.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithArtifactBase sets the path prefix artifacts are served under. It must
// match the base the pipelines publish with.
func WithArtifactBase(base string) Option {
	return func(s *Server) {
		if base != "" {
			s.artifactBase = base
		}
	}
}

// WithSubmitTimeout bounds one submission end to end.
func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.submitTimeout = d
		}
	}
}

// New creates a Server.
func New(factory PipelineFactory, opts ...Option) (*Server, error) {
	if factory == nil {
		return nil, errors.New("server: nil pipeline factory")
	}
	s := &Server{
		factory:        factory,
		logger:         slog.New(slog.DiscardHandler),
		maxSessions:    DefaultMaxSessions,
		maxUploadBytes: DefaultMaxUploadBytes,
		artifactBase:   DefaultArtifactBase,
		submitTimeout:  DefaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	sessions, err := lru.NewWithEvict(s.maxSessions, func(id string, p *vidsum.Pipeline) {
		if err := p.Close(); err != nil {
			s.logger.Warn("closing session", "session", id, "error", err)
		}
		s.logger.Debug("session closed", "session", id)
	})
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	s.sessions = sessions
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/submissions/file", s.handleSubmitFile)
		r.Post("/submissions/link", s.handleSubmitLink)
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Get("/summary.md", s.handleMarkdown)
		r.Delete("/session", s.handleEndSession)
	})

	r.Get(s.artifactBase+"/{id}", s.handleArtifact)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// Close closes every session.
func (s *Server) Close() error {
	s.sessions.Purge()
	return nil
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and closes all sessions.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	_ = s.Close()
	return err
}

// lookup returns the pipeline named by the caller's cookie without creating
// one. Read-only routes use it so polling cannot evict live sessions.
func (s *Server) lookup(r *http.Request) (string, *vidsum.Pipeline, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", nil, false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", nil, false
	}
	p, ok := s.sessions.Get(c.Value)
	if !ok {
		return "", nil, false
	}
	return c.Value, p, true
}

// session returns the caller's pipeline, creating a session when the cookie
// is absent, malformed or refers to an evicted session.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *vidsum.Pipeline, error) {
	if id, p, ok := s.lookup(r); ok {
		return id, p, nil
	}

	p, err := s.factory()
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	s.sessions.Add(id, p)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug("session created", "session", id)
	return id, p, nil
}

// requestLogger logs one line per request with slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
