package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/unitmap-io/gounitmap/internal/snapshot"
	"github.com/unitmap-io/gounitmap/internal/store"
	"github.com/unitmap-io/gounitmap/internal/telemetry"
)

// Options tunes router behavior.
type Options struct {
	RateLimitPerIP int
	MaxBodyBytes   int64
	Metrics        bool
}

// Server exposes rule authoring and evaluation over HTTP.
type Server struct {
	repo   store.Repository
	holder *snapshot.Holder
	log    zerolog.Logger
	opts   Options
}

// NewServer wires the API against an authoring repository and the
// snapshot holder evaluations read from.
func NewServer(repo store.Repository, holder *snapshot.Holder, log zerolog.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &Server{repo: repo, holder: holder, log: log, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	if s.opts.Metrics {
		r.Use(telemetry.Middleware)
	}
	if s.opts.RateLimitPerIP > 0 {
		r.Use(httprate.LimitByIP(s.opts.RateLimitPerIP, time.Minute))
	}
	r.Use(s.limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/v1/evaluate", s.handleEvaluate)

	r.Route("/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleAppendRule)
		r.Patch("/{id}", s.handleUpdateRule)
		r.Delete("/{id}", s.handleDeleteRule)
		r.Post("/{id}/move", s.handleMoveRule)
		r.Post("/{id}/conditions", s.handleAddCondition)
		r.Put("/{id}/conditions/{index}", s.handleUpdateCondition)
		r.Delete("/{id}/conditions/{index}", s.handleRemoveCondition)
	})

	r.Route("/v1/mapping", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/export", s.handleExport)
		r.Post("/validate", s.handleValidate)
		r.Post("/import", s.handleImport)
	})

	r.Post("/v1/fields/discover", s.handleDiscover)

	return r
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// handleSnapshot serves the current snapshot with ETag support.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.holder.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, snap)
}
