package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/edcb/wellbeing/internal/config"
	"github.com/edcb/wellbeing/internal/models"
	"github.com/edcb/wellbeing/internal/results"
	"github.com/edcb/wellbeing/internal/survey"
)

// maxFormBody caps the size of a survey submission
const maxFormBody = 64 << 10

// ResultAggregator builds the dashboard result set
type ResultAggregator interface {
	Aggregate(ctx context.Context, p results.Params) (*models.ResultSet, error)
}

// SubmissionStore persists survey submissions
type SubmissionStore interface {
	Insert(ctx context.Context, sub survey.Submission) (survey.Record, error)
	Count(ctx context.Context) (int64, error)
}

// Handler provides HTTP API endpoints
type Handler struct {
	aggregator ResultAggregator
	store      SubmissionStore
	cfg        config.Config
	logger     *zap.Logger
}

// NewHandler creates a new API handler. store may be nil when no database
// is configured; submissions are then refused.
func NewHandler(aggregator ResultAggregator, store SubmissionStore, cfg config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		aggregator: aggregator,
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterRoutes sets up all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Health and info
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/info", h.handleInfo).Methods("GET")

	// Dashboard data
	r.HandleFunc("/resultados", h.handleResults).Methods("GET")

	// Survey form
	r.HandleFunc("/form-data", h.handleFormData).Methods("POST")
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("error encoding response", zap.Error(err))
	}
}

// respondError sends a JSON error response
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}

// handleHealth returns server health status
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInfo returns server information
func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"version":      h.cfg.Version,
		"backend_url":  h.cfg.Backend.URL,
		"store_loaded": h.store != nil,
	}
	if h.store != nil {
		if n, err := h.store.Count(r.Context()); err == nil {
			info["submissions"] = n
		} else {
			h.logger.Warn("could not count submissions", zap.Error(err))
		}
	}
	h.respondJSON(w, http.StatusOK, info)
}

// handleResults runs both prediction waves for the query parameters
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	params := results.ParamsFromQuery(r.URL.Query())

	rs, err := h.aggregator.Aggregate(r.Context(), params)
	if err != nil {
		var missing *results.MissingParametersError
		if errors.As(err, &missing) {
			h.respondJSON(w, http.StatusBadRequest, models.ErrorResponse{
				Error:   results.ErrMissingParameters.Error(),
				Missing: missing.Keys,
			})
			return
		}
		h.logger.Error("results aggregation failed", zap.Error(err))
		h.respondError(w, http.StatusBadGateway, results.ErrBackendUnavailable.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, models.ResultsResponse{
		Results: rs,
		Charts:  rs.Charts(),
	})
}

// handleFormData validates and stores a survey submission
func (h *Handler) handleFormData(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.respondError(w, http.StatusServiceUnavailable, survey.ErrNoStore.Error())
		return
	}

	var sub survey.Submission
	if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBody)).Decode(&sub); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error": []survey.FieldError{{Field: "body", Message: "invalid JSON: " + err.Error()}},
		})
		return
	}

	rec, err := h.store.Insert(r.Context(), sub)
	if err != nil {
		var verrs survey.ValidationErrors
		if errors.As(err, &verrs) {
			h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": verrs})
			return
		}
		h.logger.Error("failed to store submission", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("submission stored", zap.String("id", rec.ID))
	h.respondJSON(w, http.StatusCreated, map[string]string{
		"message": "data saved",
		"id":      rec.ID,
	})
}

// CORS allows the configured browser origin to call the API. It wraps the
// whole router so preflight requests are answered before route matching.
func CORS(cfg config.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", cfg.Origin)
				w.Header().Set("Vary", "Origin")
				if cfg.Credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
