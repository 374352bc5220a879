package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/controllers"
)

// RefreshHandler triggers an explicit gallery refresh
type RefreshHandler struct {
	loader *controllers.Loader
	logger *logrus.Logger
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(loader *controllers.Loader, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{
		loader: loader,
		logger: logger,
	}
}

// ServeHTTP handles the refresh endpoint
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.loader.Refresh(r.Context()); err != nil {
		h.logger.WithError(err).Error("Manual refresh failed")
		http.Error(w, "Refresh failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
