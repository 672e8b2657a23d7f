// Package api exposes the extraction service over HTTP, together with the
// health and metrics endpoints. The admin UI, docs pages and the rest of
// the product surface live elsewhere; this server only carries the
// orchestration flow.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/extractor/internal/core/errcode"
	"github.com/vietddude/extractor/internal/extract"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Server serves the extraction API.
type Server struct {
	svc    *extract.Service
	checks map[string]HealthCheck
	server *http.Server
	log    *slog.Logger
}

// NewServer creates the HTTP server. checks maps dependency names to their
// liveness probes; a nil map means the service reports healthy as long as
// it is up.
func NewServer(svc *extract.Service, port int, checks map[string]HealthCheck) *Server {
	mux := http.NewServeMux()
	s := &Server{
		svc:    svc,
		checks: checks,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		log: slog.With("component", "api"),
	}

	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("GET /api/prepare", s.handlePrepare)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type extractRequest struct {
	URL         string `json:"url"`
	SkipCache   bool   `json:"skipCache,omitempty"`
	SkipResolve bool   `json:"skipResolve,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	requestID := uuid.NewString()
	identifier := clientIP(r)

	res := s.svc.Extract(r.Context(), req.URL, extract.Options{
		Identifier:  identifier,
		RateContext: "public",
		SkipCache:   req.SkipCache,
		SkipResolve: req.SkipResolve,
	})

	s.log.Debug("extract request served",
		"requestId", requestID, "identifier", identifier,
		"success", res.Success, "errorCode", res.ErrorCode)

	status := http.StatusOK
	switch {
	case res.Success:
	case res.ErrorCode == errcode.RateLimited && res.ResetInMs > 0:
		status = http.StatusTooManyRequests
		retryAfter := time.Duration(res.ResetInMs) * time.Millisecond
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
	case res.ErrorCode == errcode.InvalidURL, res.ErrorCode == errcode.UnsupportedPlatform:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, res)
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	info := s.svc.PrepareSync(rawURL)
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.runChecks(r.Context())

	status := "healthy"
	code := http.StatusOK
	for _, err := range report {
		if err != "" {
			status = "critical"
			code = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runChecks(r.Context()))
}

func (s *Server) runChecks(ctx context.Context) map[string]string {
	report := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := check(cctx); err != nil {
			report[name] = err.Error()
		} else {
			report[name] = ""
		}
		cancel()
	}
	return report
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
