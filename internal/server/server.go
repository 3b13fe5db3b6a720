package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/psantana5/segtime/internal/pipeline"
	"github.com/psantana5/segtime/internal/profile"
	"github.com/psantana5/segtime/internal/report"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxBodyBytes caps a single submitted entity
const maxBodyBytes = 32 << 20

// Handler serves pipeline submissions and timing reports over HTTP
type Handler struct {
	registry *profile.Registry
	pipeline *pipeline.Pipeline
	metrics  http.Handler
	logger   zerolog.Logger
}

// NewHandler creates a handler that runs submitted entities through p and
// reports on reg.
func NewHandler(reg *profile.Registry, p *pipeline.Pipeline, logger zerolog.Logger) (*Handler, error) {
	promReg := prometheus.NewRegistry()
	if err := promReg.Register(report.NewCollector(reg)); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}

	return &Handler{
		registry: reg,
		pipeline: p,
		metrics:  promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		logger:   logger,
	}, nil
}

// RegisterRoutes registers all routes on r
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.requestLogger)

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", h.metrics).Methods("GET")

	r.HandleFunc("/summary", h.Summary).Methods("GET")
	r.HandleFunc("/report", h.Report).Methods("GET")
	r.HandleFunc("/report/{category}", h.CategoryReport).Methods("GET")

	// Entities are path-like and keep their slashes
	r.HandleFunc("/entities/{entity:.+}", h.ProcessEntity).Methods("POST")
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Report returns the text tables of every used category
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.Write(w, h.registry, report.FormatText); err != nil {
		h.logger.Error().Err(err).Msg("failed to write report")
	}
}

// CategoryReport returns one category's structured report, JSON by default
// or YAML with ?format=yaml.
func (h *Handler) CategoryReport(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["category"]

	totals, err := report.CategoryReport(h.registry, label)
	if err != nil {
		if errors.Is(err, report.ErrUnknownCategory) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, totals)
	case "yaml":
		w.Header().Set("Content-Type", "application/yaml")
		if err := yaml.NewEncoder(w).Encode(totals); err != nil {
			h.logger.Error().Err(err).Msg("failed to encode yaml report")
		}
	default:
		http.Error(w, "Unsupported format", http.StatusBadRequest)
	}
}

// Summary returns the per-category overview
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Summarize(h.registry))
}

type processResponse struct {
	Entity   string `json:"entity"`
	BytesIn  int64  `json:"bytes_in"`
	BytesOut int    `json:"bytes_out"`
}

// ProcessEntity runs the request body through the pipeline as one entity
func (h *Handler) ProcessEntity(w http.ResponseWriter, r *http.Request) {
	entity := mux.Vars(r)["entity"]
	body := &countingReader{r: http.MaxBytesReader(w, r.Body, maxBodyBytes)}

	out, err := h.pipeline.Run(r.Context(), entity, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			http.Error(w, "Entity too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, pipeline.ErrNoStages):
			http.Error(w, "Pipeline not configured", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("Pipeline failed: %v", err), http.StatusUnprocessableEntity)
		}
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Entity:   entity,
		BytesIn:  body.n,
		BytesOut: len(out),
	})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		started := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(started)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
