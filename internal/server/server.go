package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/edcb/wellbeing/internal/api"
	"github.com/edcb/wellbeing/internal/config"
	"github.com/edcb/wellbeing/internal/predict"
	"github.com/edcb/wellbeing/internal/results"
	"github.com/edcb/wellbeing/internal/survey"
)

// Server holds all the components for the web application
type Server struct {
	cfg         config.Config
	logger      *zap.Logger
	httpServer  *http.Server
	router      *mux.Router
	client      *predict.Client
	surveyStore *survey.Store
}

// New creates a new Server with all components initialized
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
	}

	client, err := predict.New(cfg.Backend.URL, predict.WithLogger(logger.Named("predict")))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	s.client = client

	// Submissions are optional: the dashboard still works without a database
	store, err := survey.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Warn("survey store not available", zap.Error(err))
	} else {
		s.surveyStore = store
		logger.Info("survey store ready", zap.String("driver", store.Driver()))
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	aggregator := results.NewAggregator(s.client,
		results.WithCallTimeout(s.cfg.Backend.Timeout),
		results.WithLogger(s.logger.Named("results")))

	// a nil *survey.Store must not become a non-nil interface
	var store api.SubmissionStore
	if s.surveyStore != nil {
		store = s.surveyStore
	}

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiHandler := api.NewHandler(aggregator, store, s.cfg, s.logger.Named("api"))
	apiHandler.RegisterRoutes(apiRouter)
}

// Handler returns the root handler with CORS applied
func (s *Server) Handler() http.Handler {
	return api.CORS(s.cfg.CORS)(s.router)
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("server listening",
		zap.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Port)),
		zap.String("backend", s.client.BaseURL()))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// Close stores
	if s.surveyStore != nil {
		if cerr := s.surveyStore.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
