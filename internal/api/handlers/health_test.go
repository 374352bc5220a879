package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/models"
	"github.com/amelner/gallerysync/internal/store"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestHealthReportsRecordsHeld(t *testing.T) {
	st := store.New(20)
	st.LoadPage([]*models.MediaRecord{
		{ID: "r1", Status: models.StatusCompleted, URL: "https://cdn.example.com/r1.png"},
		{ID: "r2", Status: models.StatusProcessing},
	}, 2, 1)
	h := NewHealthHandler(st, discardLogger())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body struct {
		Status      string `json:"status"`
		RecordsHeld int    `json:"records_held"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("expected status healthy, got %q", body.Status)
	}
	if body.RecordsHeld != 2 {
		t.Errorf("expected 2 records held, got %d", body.RecordsHeld)
	}
}

func TestHealthRejectsNonGet(t *testing.T) {
	h := NewHealthHandler(store.New(20), discardLogger())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
