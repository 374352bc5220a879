package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/store"
)

// HealthHandler answers liveness probes. It never touches the backend; a
// healthy process with an unreachable backend still reports healthy and the
// record count tells the two states apart.
type HealthHandler struct {
	store  *store.Store
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(st *store.Store, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{store: st, logger: logger}
}

// ServeHTTP handles the health check endpoint
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":       "healthy",
		"records_held": h.store.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
