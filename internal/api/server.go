package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/api/handlers"
	"github.com/amelner/gallerysync/internal/api/middleware"
	"github.com/amelner/gallerysync/internal/config"
	"github.com/amelner/gallerysync/internal/controllers"
	"github.com/amelner/gallerysync/internal/prefs"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/store"
)

// Server represents the local HTTP server
type Server struct {
	server       *http.Server
	store        *store.Store
	backend      backend.Service
	loader       *controllers.Loader
	folderCtrl   *controllers.FolderController
	mutationCtrl *controllers.MutationController
	prefs        *prefs.Manager
	logger       *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	st *store.Store,
	svc backend.Service,
	loader *controllers.Loader,
	folderCtrl *controllers.FolderController,
	mutationCtrl *controllers.MutationController,
	prefsMgr *prefs.Manager,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		store:        st,
		backend:      svc,
		loader:       loader,
		folderCtrl:   folderCtrl,
		mutationCtrl: mutationCtrl,
		prefs:        prefsMgr,
		logger:       logger,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	healthHandler := handlers.NewHealthHandler(s.store, s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	statusHandler := handlers.NewStatusHandler(s.store, s.backend, s.folderCtrl, s.logger)
	mux.HandleFunc("/status", statusHandler.ServeHTTP)

	refreshHandler := handlers.NewRefreshHandler(s.loader, s.logger)
	mux.HandleFunc("/api/refresh", refreshHandler.ServeHTTP)

	prefsHandler := handlers.NewPrefsHandler(s.prefs, s.logger)
	mux.HandleFunc("/api/prefs", prefsHandler.ServeHTTP)

	recordsHandler := handlers.NewRecordsHandler(s.mutationCtrl, s.folderCtrl, s.logger)
	mux.HandleFunc("/api/records/{id}", recordsHandler.Delete)
	mux.HandleFunc("/api/records/{id}/reference", recordsHandler.UpdateReference)
	mux.HandleFunc("/api/records/move", recordsHandler.Move)

	mux.Handle("/metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
