// Package server serves the latest report over HTTP: the HTML page, the JSON
// document and a Prometheus scrape endpoint.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"loadgrade/internal/chart"
	"loadgrade/internal/report"
)

// snapshot is everything served for one report. It is replaced whole.
type snapshot struct {
	report  *report.Report
	html    []byte
	metrics http.Handler
}

type Server struct {
	router  *mux.Router
	current atomic.Pointer[snapshot]
}

func New() *Server {
	s := &Server{router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(requestIDMiddleware)
	s.router.Use(requestLoggingMiddleware)

	s.router.HandleFunc("/", s.handleHTML).Methods(http.MethodGet)
	s.router.HandleFunc("/api/report", s.handleJSON).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Update publishes r. The HTML page and metrics are rendered once here
// rather than per request.
func (s *Server) Update(r *report.Report) error {
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, r, chart.All(r.Endpoints, r.History)); err != nil {
		return err
	}
	reg := report.NewRegistry(r)
	s.current.Store(&snapshot{
		report:  r,
		html:    buf.Bytes(),
		metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	log.Info().Str("run_id", r.RunID).Msg("dashboard updated")
	return nil
}

func (s *Server) latest(w http.ResponseWriter) *snapshot {
	snap := s.current.Load()
	if snap == nil {
		http.Error(w, "no report analyzed yet", http.StatusServiceUnavailable)
	}
	return snap
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(snap.html)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w, snap.report); err != nil {
		log.Debug().Err(err).Msg("writing report response")
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snap := s.latest(w)
	if snap == nil {
		return
	}
	snap.metrics.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := struct {
		Status    string `json:"status"`
		HasReport bool   `json:"hasReport"`
	}{Status: "ok", HasReport: s.current.Load() != nil}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("dashboard listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", uuid.New().String()[:8])
		next.ServeHTTP(w, r)
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("request_id", w.Header().Get("X-Request-ID")).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
