package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fedgraph/fedgraph/pkg/cache"
	"github.com/fedgraph/fedgraph/pkg/observability"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// Options configures the HTTP server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ReadTimeout and WriteTimeout bound request handling. Zero values fall
	// back to 15s and 30s respectively.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the graph engine over HTTP. It is safe for concurrent use:
// mutations on a graph are serialized behind a per-name RW mutex, and reads
// of the same graph proceed in parallel.
type Server struct {
	store  store.Store
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
	opts   Options

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewServer creates a server backed by the given store. The cache may be nil,
// in which case rendering is uncached; the logger may be nil for a silent
// server.
func NewServer(st store.Store, c cache.Cache, logger *log.Logger, opts Options) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	return &Server{
		store: st,
		cache: c,
		// Server keys are prefixed so a cache backend shared with CLI
		// processes keeps the two namespaces apart.
		keyer:  cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:"),
		logger: logger,
		opts:   opts,
		locks:  make(map[string]*sync.RWMutex),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withRequestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/graphs", s.handleListGraphs)
		r.Route("/graphs/{name}", func(r chi.Router) {
			r.Put("/", s.handlePutGraph)
			r.Get("/", s.handleGetGraph)
			r.Delete("/", s.handleDeleteGraph)

			r.Post("/nodes", s.handleAddNode)
			r.Get("/nodes", s.handleGetNode)
			r.Delete("/nodes", s.handleRemoveNode)

			r.Post("/edges", s.handleAddEdge)
			r.Delete("/edges", s.handleRemoveEdge)

			r.Get("/order", s.handleOrder)
			r.Get("/ancestors", s.handleAncestors)
			r.Get("/descendants", s.handleDescendants)
			r.Get("/subgraph", s.handleSubgraph)
			r.Get("/fingerprint", s.handleFingerprint)
			r.Get("/stats", s.handleStats)
			r.Get("/render", s.handleRender)

			r.Post("/tasks", s.handleLinkTask)
		})
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// graphLock returns the mutex guarding the named graph, creating it on first
// use. Locks are never discarded; the set of graph names is small.
func (s *Server) graphLock(name string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[name] = l
	}
	return l
}

// ===== Middleware =====

type ctxKey int

const requestIDKey ctxKey = 0

// withRequestID attaches a UUID to the request context and echoes it in the
// X-Request-ID response header.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// requestID retrieves the request ID from the context, if present.
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs method, path, status, and duration for every request and
// emits HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		observability.HTTP().OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, rec.status, elapsed)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed.Round(time.Millisecond),
			"request_id", requestID(r.Context()),
		)
	})
}
