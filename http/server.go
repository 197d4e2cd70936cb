// Package http serves the cardgap dashboard: a tag multi-select, a model
// dropdown, and panels listing the sections a model card has and the common
// sections it is missing. The same report is available as JSON.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is the default listen address of the dashboard.
const DefaultAddr = ":8080"

// ShutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

// Server serves the dashboard and JSON API.
type Server struct {
	reports cardgap.ReportService
	tags    []string
	topK    int
	fetch   bool
	logger  *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTags sets the tags offered in the multi-select. Requests for other
// tags are rejected. Defaults to cardgap.DefaultTags.
func WithTags(tags []string) Option {
	return func(s *Server) {
		if len(tags) > 0 {
			s.tags = tags
		}
	}
}

// WithTopK sets the number of common headers compared against when the
// request does not specify one.
func WithTopK(k int) Option {
	return func(s *Server) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithFetch controls whether uncached tags are harvested on request.
// Enabled by default.
func WithFetch(fetch bool) Option {
	return func(s *Server) {
		s.fetch = fetch
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new Server backed by reports.
func NewServer(reports cardgap.ReportService, opts ...Option) *Server {
	s := &Server{
		reports:  reports,
		tags:     cardgap.DefaultTags,
		topK:     cardgap.DefaultTopK,
		fetch:    true,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.metrics = newMetrics(s.registry)
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. The listener is reported through ready, if not nil, once it
// accepts connections.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.metrics.middleware)

	r.Get("/", s.handleDashboard)
	r.Get("/api/report", s.handleReport)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// parseRequest reads the report request from the query string:
// repeated "tag", "model" and "top_k". Only the offered tags are accepted,
// so a request cannot start a harvest of an arbitrary tag.
func (s *Server) parseRequest(r *http.Request) (cardgap.ReportRequest, error) {
	q := r.URL.Query()
	req := cardgap.ReportRequest{
		Tags:  q["tag"],
		Fetch: s.fetch,
		ReportOptions: cardgap.ReportOptions{
			ModelID: q.Get("model"),
			TopK:    s.topK,
		},
	}

	if v := q.Get("top_k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil || k <= 0 {
			return req, cardgap.Errorf(cardgap.EINVALID, "top_k must be a positive integer")
		}
		req.TopK = k
	}

	for _, tag := range req.Tags {
		if err := cardgap.ValidateTag(tag); err != nil {
			return req, err
		}
		if !slices.Contains(s.tags, tag) {
			return req, cardgap.Errorf(cardgap.EINVALID, "tag %q is not offered", tag)
		}
	}
	return req, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.reports.Report(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.observeReport(report)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Warn("encode report", "err", err)
	}
}

// writeError writes an application error as JSON with a matching status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := cardgap.ErrorCode(err)
	status := errorStatus(code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  code,
		"error": cardgap.ErrorMessage(err),
	})
}

func errorStatus(code string) int {
	switch code {
	case cardgap.EINVALID:
		return http.StatusBadRequest
	case cardgap.ENOTFOUND:
		return http.StatusNotFound
	case cardgap.ECONFLICT:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// logRequests logs each request once it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		begin := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(begin),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
