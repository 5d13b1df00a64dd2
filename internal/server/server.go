// Package server exposes analysis and advice over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/K0NGR3SS/netwatch/internal/advisory"
	"github.com/K0NGR3SS/netwatch/internal/analyzer"
	"github.com/K0NGR3SS/netwatch/internal/models"
	"github.com/K0NGR3SS/netwatch/internal/rules"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	maxReportBytes  = 10 << 20
	maxRequestBytes = 1 << 20

	SourceHeader = "X-NetWatch-Source"
)

type Server struct {
	advisor  *advisory.Advisor
	analyzer *analyzer.Analyzer
	version  string
	logger   zerolog.Logger
	now      func() time.Time
}

func New(adv *advisory.Advisor, an *analyzer.Analyzer, version string, logger zerolog.Logger) *Server {
	return &Server{
		advisor:  adv,
		analyzer: an,
		version:  version,
		logger:   logger.With().Str("component", "server").Logger(),
		now:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /quick-check", s.handleQuickCheck)
	mux.HandleFunc("GET /recommendations/{port}", s.handleRecommendations)
	mux.HandleFunc("POST /report", s.handleReport)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down http server")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "http server shutdown")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "NetWatch Security Advisor API",
		"version": s.version,
		"endpoints": []string{
			"GET /health",
			"POST /analyze",
			"POST /quick-check",
			"GET /recommendations/{port}",
			"POST /report",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"timestamp":      s.now().UTC().Format(time.RFC3339),
		"api_configured": s.advisor.Enabled(),
		"cache_size":     s.advisor.CacheSize(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req advisory.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Services == nil {
		http.Error(w, "missing services", http.StatusBadRequest)
		return
	}

	res := s.advisor.Advise(r.Context(), req)

	critical := 0
	for _, rec := range res.Response.Recommendations {
		if rec.Severity == models.RiskCritical {
			critical++
		}
	}
	s.logger.Info().
		Int("score", req.SecurityScore).
		Str("risk_level", string(res.Response.RiskLevel)).
		Int("critical", critical).
		Int("services", len(req.Services)).
		Str("source", string(res.Source)).
		Msg("analysis served")

	w.Header().Set(SourceHeader, string(res.Source))
	writeJSON(w, http.StatusOK, res.Response)
}

func (s *Server) handleQuickCheck(w http.ResponseWriter, r *http.Request) {
	var services []advisory.ServiceInfo
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&services); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	records := make([]models.ServiceRecord, 0, len(services))
	for _, svc := range services {
		records = append(records, svc.Record())
	}
	writeJSON(w, http.StatusOK, rules.QuickCheck(records))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	port, err := strconv.Atoi(r.PathValue("port"))
	if err != nil || port < 1 || port > 65535 {
		http.Error(w, "invalid port", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, rules.AdviceForPort(port))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	an, err := s.analyzer.AnalyzeReader(http.MaxBytesReader(w, r.Body, maxReportBytes))
	if err != nil {
		http.Error(w, "unable to read snapshot", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, an)
}
