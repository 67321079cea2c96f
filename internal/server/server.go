package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/user/scribe/internal/discovery"
	"github.com/user/scribe/internal/migrate"
	"github.com/user/scribe/internal/store"
)

// Server is the HTTP server for the transcription coordinator.
type Server struct {
	store      *store.Store
	enumerator *discovery.Enumerator
	engine     *migrate.Engine
	verifier   TokenVerifier
	httpServer *http.Server
	router     chi.Router
}

// New creates a new Server. enumerator and engine may be nil when the
// deployment runs without a catalog source or object store; the matching
// endpoints then report an internal error.
func New(s *store.Store, enumerator *discovery.Enumerator, engine *migrate.Engine, verifier TokenVerifier, bindAddr string) *Server {
	srv := &Server{
		store:      s,
		enumerator: enumerator,
		engine:     engine,
		verifier:   verifier,
	}
	srv.router = srv.buildRouter()
	srv.httpServer = &http.Server{
		Addr:    bindAddr,
		Handler: h2c.NewHandler(srv.router, &http2.Server{}),
	}
	return srv
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(structuredLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Worker endpoints
		r.Get("/queue", s.handlePoll)
		r.Post("/queue/discover", s.handleDiscover)
		r.Post("/queue/claim", s.handleClaim)
		r.Post("/queue/release", s.handleRelease)

		// Annotation and metadata
		r.Post("/speakers", s.handleSpeakers)
		r.Post("/metadata", s.handleSetMetadata)

		// Bulk sweeps
		r.Post("/migrate", s.handleMigrate)
		r.Post("/metadata/regenerate", s.handleRegenerate)

		// Operator
		r.Get("/audit", s.handleListAudit)
	})

	r.Get("/healthz", s.handleHealthz)

	return r
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeOK(w, "ok", nil)
}

// Response envelope

type envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Message: message, Data: data})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{OK: false, Message: message, Data: nil})
}

// writeError maps the store error taxonomy onto the response surface.
// Internal detail stays in the log; callers get a generic message.
func writeError(w http.ResponseWriter, err error) {
	switch store.CodeOf(err) {
	case store.CodeValidation:
		writeFail(w, http.StatusBadRequest, err.Error())
	case store.CodeUnauthorized:
		writeFail(w, http.StatusUnauthorized, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeFail(w, http.StatusInternalServerError, "Internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Middleware

func structuredLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
