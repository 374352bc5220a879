package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/amelner/gallerysync/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("failed to open snapshot store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []models.MediaRecord{
		{ID: "a", URL: "https://cdn.example.com/a.png", Status: models.StatusCompleted, CreatedAt: base},
		{ID: "b", URL: "https://cdn.example.com/b.png", Status: models.StatusCompleted, CreatedAt: base.Add(time.Hour)},
	}
	if err := s.Save(records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	// Newest first
	if loaded[0].ID != "b" || loaded[1].ID != "a" {
		t.Errorf("unexpected order: %s, %s", loaded[0].ID, loaded[1].ID)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save([]models.MediaRecord{{ID: "old", Status: models.StatusCompleted}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Save([]models.MediaRecord{{ID: "new", Status: models.StatusCompleted}}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "new" {
		t.Errorf("expected only the new record, got %v", loaded)
	}
}

func TestSaveSkipsUnresolvedRecords(t *testing.T) {
	s := openTestStore(t)

	records := []models.MediaRecord{
		{ID: "done", Status: models.StatusCompleted},
		{ID: "gen-1", Status: models.StatusPending},
		{ID: "gen-2", Status: models.StatusProcessing},
	}
	if err := s.Save(records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "done" {
		t.Errorf("placeholders must not be persisted, got %v", loaded)
	}
}
