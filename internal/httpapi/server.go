// Package httpapi exposes the recommendation engine over a JSON REST API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
)

// Server is the HTTP transport over the engine and store.
type Server struct {
	engine *recommend.Engine
	store  *graphstore.Store
	logger zerolog.Logger
	http   *http.Server
}

// Options tunes the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewServer builds the server with its routes mounted.
func NewServer(engine *recommend.Engine, store *graphstore.Store, logger zerolog.Logger, opts Options) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Routes mounts the middleware stack and all endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestID)
	r.Use(accessLog)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recommendations", s.handleRecommend)
		r.Get("/occupations", s.handleSearchOccupations)
		r.Get("/occupations/skill-gap", s.handleSkillGap)
		r.Get("/skills", s.handleSearchSkills)
		r.Get("/notes", s.handleSearchNotes)
		r.Put("/notes", s.handleUpsertNote)
		r.Delete("/notes", s.handleDeleteNote)
		r.Get("/catalog/occupation-groups", s.handleOccupationGroups)
		r.Get("/catalog/skill-groups", s.handleSkillGroups)
		r.Get("/catalog/schemes", s.handleSchemes)
		r.Get("/diagnostics", s.handleDiagnostics)
	})

	return r
}

// ListenAndServe blocks until ctx ends or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// requestID assigns each request a UUID, echoed in the X-Request-Id header
// and attached to the request logger.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		logger := hlog.FromRequest(r).With().Str("request_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}

// accessLog writes one structured line per request.
func accessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", size).
			Dur("duration", duration).
			Msg("request")
	})(next)
}
