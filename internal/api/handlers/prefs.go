package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/prefs"
)

// PrefsHandler reads and updates display preferences
type PrefsHandler struct {
	prefs  *prefs.Manager
	logger *logrus.Logger
}

// NewPrefsHandler creates a new preferences handler
func NewPrefsHandler(manager *prefs.Manager, logger *logrus.Logger) *PrefsHandler {
	return &PrefsHandler{
		prefs:  manager,
		logger: logger,
	}
}

type prefsPayload struct {
	GridDensity      *string `json:"grid_density,omitempty"`
	SidebarCollapsed *bool   `json:"sidebar_collapsed,omitempty"`
	NativeAspect     *bool   `json:"native_aspect,omitempty"`
}

// ServeHTTP handles the preferences endpoint
func (h *PrefsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.write(w)
	case http.MethodPatch:
		var payload prefsPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if payload.GridDensity != nil {
			h.prefs.SetGridDensity(prefs.GridDensity(*payload.GridDensity))
		}
		if payload.SidebarCollapsed != nil {
			h.prefs.SetSidebarCollapsed(*payload.SidebarCollapsed)
		}
		if payload.NativeAspect != nil {
			h.prefs.SetNativeAspect(*payload.NativeAspect)
		}
		h.write(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PrefsHandler) write(w http.ResponseWriter) {
	settings := h.prefs.Settings()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"grid_density":      settings.GridDensity,
		"sidebar_collapsed": settings.SidebarCollapsed,
		"native_aspect":     settings.NativeAspect,
	})
}
