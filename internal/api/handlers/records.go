package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/controllers"
)

// RecordsHandler applies user edits to the gallery: delete, reference tag
// updates and bulk folder moves. All edits go through the optimistic layer,
// so the response reflects local state regardless of the remote outcome.
type RecordsHandler struct {
	mutationCtrl *controllers.MutationController
	folderCtrl   *controllers.FolderController
	logger       *logrus.Logger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(mutationCtrl *controllers.MutationController, folderCtrl *controllers.FolderController, logger *logrus.Logger) *RecordsHandler {
	return &RecordsHandler{
		mutationCtrl: mutationCtrl,
		folderCtrl:   folderCtrl,
		logger:       logger,
	}
}

// Delete handles record deletion by id or URL
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if !h.mutationCtrl.DeleteRecord(r.Context(), id) {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// UpdateReference handles reference tag updates
func (h *RecordsHandler) UpdateReference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Reference string `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := h.mutationCtrl.UpdateReferenceTag(r.Context(), id, payload.Reference); err != nil {
		http.Error(w, "Record not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Move handles bulk folder reassignment
func (h *RecordsHandler) Move(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		IDs      []string `json:"ids"`
		FolderID string   `json:"folder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(payload.IDs) == 0 {
		http.Error(w, "No record ids given", http.StatusBadRequest)
		return
	}
	if payload.FolderID != "" && h.folderCtrl.ResolveFolderID(payload.FolderID) == "" {
		http.Error(w, "Unknown folder", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := h.folderCtrl.MoveRecordsToFolder(r.Context(), payload.IDs, payload.FolderID); err != nil {
		// The local move already applied; surface the remote failure without
		// pretending nothing happened
		h.logger.WithError(err).Warn("Bulk move did not fully persist")
		w.WriteHeader(http.StatusAccepted)
	}
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
