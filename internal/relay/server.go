// Package relay serves the cookie handoff used by server-rendered reads.
//
// A signed-in client POSTs its token to /api/set-token; the relay stores it
// in an HttpOnly cookie that expires before the session does. Guarded
// endpoints then read the cookie and call the blog API with it as a bearer
// credential.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naveenspark/quill/internal/guard"
)

// Options configures a Server.
type Options struct {
	Addr         string
	APIURL       string
	CookieName   string
	CookieMaxAge time.Duration
	// Production marks the cookie Secure.
	Production bool
	Logger     *slog.Logger
	// Registry receives the relay metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
}

// Server is the relay HTTP server.
type Server struct {
	opts    Options
	logger  *slog.Logger
	metrics *Metrics
	router  chi.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}
	if opts.CookieMaxAge <= 0 {
		opts.CookieMaxAge = time.Hour
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:    opts,
		logger:  logger.With("component", "relay"),
		metrics: NewMetrics(opts.Registry),
	}
	s.router = s.routes()
	return s
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/login", s.handleLogin)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/set-token", s.handleSetToken)
		r.Post("/clear-token", s.handleClearToken)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireCookie(s.opts.CookieName))
			r.Get("/posts", s.handleListPosts)
			r.Get("/posts/{id}", s.handleGetPost)
		})
	})
	return r
}

// ListenAndServe serves on opts.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("relay listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay shutdown: %w", err)
	}
	<-errCh
	s.logger.Info("relay stopped")
	return nil
}

// instrument records request counts and durations by chi route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
