// Package server exposes waveform extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satindergrewal/wavepeek/internal/waveform"
)

const requestIDHeader = "X-Request-ID"

// Computer produces one waveform; *waveform.Extractor satisfies it.
type Computer interface {
	Compute(ctx context.Context, ref string, samples int) (waveform.Metadata, bool)
}

// Server serves the waveform API.
type Server struct {
	computer       Computer
	defaultSamples int
	maxSamples     int
	logger         *zap.SugaredLogger
}

// New creates a server. Requests without a samples parameter get
// defaultSamples peaks; larger requests than maxSamples are rejected.
func New(c Computer, defaultSamples, maxSamples int, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		computer:       c,
		defaultSamples: defaultSamples,
		maxSamples:     maxSamples,
		logger:         logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/waveform", s.handleWaveform)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.logger, http.StatusOK, map[string]any{"ok": true})
	})
	return s.withRequestID(mux)
}

func (s *Server) handleWaveform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, s.logger, http.StatusMethodNotAllowed, errors.New("GET required"))
		return
	}

	src := strings.TrimSpace(r.URL.Query().Get("src"))
	if src == "" {
		writeError(w, s.logger, http.StatusBadRequest, errors.New("src is required"))
		return
	}
	samples, err := s.parseSamples(r.URL.Query().Get("samples"))
	if err != nil {
		writeError(w, s.logger, http.StatusBadRequest, err)
		return
	}

	logger := s.logger.With("request_id", w.Header().Get(requestIDHeader), "src", src, "samples", samples)
	md, ok := s.computer.Compute(r.Context(), src, samples)
	if !ok {
		logger.Infow("waveform unavailable")
		writeError(w, s.logger, http.StatusUnprocessableEntity, errors.New("media could not be probed"))
		return
	}

	logger.Infow("waveform computed", "duration_ms", md.DurationMs)
	writeJSON(w, s.logger, http.StatusOK, md)
}

func (s *Server) parseSamples(raw string) (int, error) {
	if raw == "" {
		return s.defaultSamples, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > s.maxSamples {
		return 0, fmt.Errorf("samples must be an integer in 1-%d", s.maxSamples)
	}
	return n, nil
}

// withRequestID tags every response with a request ID, reusing one supplied
// by the caller.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		s.logger.Debugw("request", "request_id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, logger *zap.SugaredLogger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, status int, err error) {
	writeJSON(w, logger, status, map[string]string{"error": err.Error()})
}
