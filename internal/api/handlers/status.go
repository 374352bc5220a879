package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/controllers"
	"github.com/amelner/gallerysync/internal/models"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/store"
)

// StatusHandler reports the current sync state
type StatusHandler struct {
	store      *store.Store
	backend    backend.Service
	folderCtrl *controllers.FolderController
	logger     *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(st *store.Store, svc backend.Service, folderCtrl *controllers.FolderController, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		store:      st,
		backend:    svc,
		folderCtrl: folderCtrl,
		logger:     logger,
	}
}

// folderStatus is one folder with its server-derived count
type folderStatus struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	RecordsHeld  int            `json:"records_held"`
	Pending      int            `json:"pending"`
	Processing   int            `json:"processing"`
	Completed    int            `json:"completed"`
	Failed       int            `json:"failed"`
	HasMore      bool           `json:"has_more"`
	TotalKnown   int            `json:"total_known"`
	BackendTotal int            `json:"backend_total,omitempty"`
	Filter       store.Filter   `json:"filter"`
	Folders      []folderStatus `json:"folders"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	counts := h.store.StatusCounts()
	_, totalKnown, hasMore := h.store.Cursor()

	response := StatusResponse{
		RecordsHeld: h.store.Len(),
		Pending:     counts[models.StatusPending],
		Processing:  counts[models.StatusProcessing],
		Completed:   counts[models.StatusCompleted],
		Failed:      counts[models.StatusFailed],
		HasMore:     hasMore,
		TotalKnown:  totalKnown,
		Filter:      h.store.Filter(),
	}

	// Unfiltered remote total, best effort; the client answers from its
	// metadata cache between reconciliations
	if total, err := h.backend.TotalRecordCount(r.Context()); err != nil {
		h.logger.WithError(err).Debug("Failed to fetch backend record count")
	} else {
		response.BackendTotal = total
	}

	for _, folder := range h.folderCtrl.Folders() {
		response.Folders = append(response.Folders, folderStatus{
			ID:    folder.ID,
			Name:  folder.Name,
			Count: folder.RecordCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
