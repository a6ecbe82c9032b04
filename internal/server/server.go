package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
	"github.com/ChicagoDave/ilotplanner/pkg/pipeline"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

// maxBodyBytes bounds request bodies; drawings are entity streams, not files.
const maxBodyBytes = 32 << 20

// Server exposes the analysis pipeline over HTTP. It owns no state between
// requests beyond the base configuration.
type Server struct {
	cfg    *config.Config
	port   int
	logger *log.Logger
	runner *pipeline.Runner
}

// New creates a server that analyzes with cfg unless a request overrides it.
func New(cfg *config.Config, port int, logger *log.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		port:   port,
		logger: logger,
		runner: pipeline.NewRunner(logger),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/validate", s.handleValidate)
	})
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("ilotplanner server starting", "addr", "http://localhost"+srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg)
}

// analyzeRequest carries a drawing and optional configuration overrides,
// applied on top of the server configuration.
type analyzeRequest struct {
	Drawing *drawing.Drawing `json:"drawing"`
	Config  json.RawMessage  `json:"config,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg, err := s.overlay(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.runner.Analyze(r.Context(), req.Drawing, cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, res)
	case "record":
		writeJSON(w, http.StatusOK, res.Record())
	case "geojson":
		data, err := res.MarshalGeoJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrCodeInvalidInput, "unknown format %q", r.URL.Query().Get("format")))
	}
}

// validateRequest checks configuration overrides, a saved layout, or both.
type validateRequest struct {
	Config json.RawMessage `json:"config,omitempty"`
	Layout *layout.Result  `json:"layout,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg, err := s.overlay(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	report := validation.ValidateConfig(cfg)
	if req.Layout != nil {
		report.Merge(layout.Validate(req.Layout))
	}
	writeJSON(w, http.StatusOK, report)
}

// overlay decodes raw over a copy of the server configuration.
func (s *Server) overlay(raw json.RawMessage) (*config.Config, error) {
	cfg := s.cfg.Clone()
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decoding config")
	}
	return cfg, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "decoding request body")
	}
	return nil
}

// statusFor maps failure codes onto HTTP statuses.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig,
		errors.ErrCodeNoBoundary, errors.ErrCodeAmbiguousPlan:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"message"`
	Details []string    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	if e, ok := err.(*errors.Error); ok {
		body.Details = e.Details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
