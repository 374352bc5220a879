package store

import (
	"fmt"
	"testing"

	"github.com/amelner/gallerysync/internal/models"
)

func rec(id string) *models.MediaRecord {
	return &models.MediaRecord{
		ID:     id,
		URL:    "https://cdn.example.com/" + id + ".png",
		Status: models.StatusCompleted,
	}
}

func recs(prefix string, n int) []*models.MediaRecord {
	out := make([]*models.MediaRecord, n)
	for i := range out {
		out[i] = rec(fmt.Sprintf("%s-%d", prefix, i))
	}
	return out
}

func assertUniqueIDs(t *testing.T, s *Store) {
	t.Helper()
	seen := make(map[string]struct{})
	for _, r := range s.Records() {
		if _, dup := seen[r.ID]; dup {
			t.Fatalf("duplicate id in store: %s", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
}

func TestLoadPageDeduplicates(t *testing.T) {
	s := New(20)

	page := []*models.MediaRecord{rec("a"), rec("b"), rec("a"), rec("c"), rec("b")}
	s.LoadPage(page, 3, 1)

	if s.Len() != 3 {
		t.Fatalf("expected 3 records after dedupe, got %d", s.Len())
	}
	offset, total, hasMore := s.Cursor()
	if offset != 3 {
		t.Errorf("expected offset 3, got %d", offset)
	}
	if total != 3 {
		t.Errorf("expected totalKnown 3, got %d", total)
	}
	if hasMore {
		t.Error("expected hasMore false when offset == total")
	}
	assertUniqueIDs(t, s)
}

func TestLoadPageComputesHasMore(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 20), 120, 6)

	offset, total, hasMore := s.Cursor()
	if offset != 20 || total != 120 {
		t.Fatalf("cursor mismatch: offset=%d total=%d", offset, total)
	}
	if !hasMore {
		t.Error("expected hasMore true with 100 records left")
	}
}

func TestAppendPageSkipsDuplicatesButAdvancesOffset(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 20), 60, 3)

	// Second page overlaps the first by five records
	page2 := append(recs("p", 5), recs("q", 15)...)
	s.AppendPage(page2, true)

	if s.Len() != 35 {
		t.Errorf("expected 35 unique records, got %d", s.Len())
	}
	offset, _, _ := s.Cursor()
	if offset != 40 {
		t.Errorf("offset must advance by the full page length, got %d", offset)
	}
	assertUniqueIDs(t, s)

	// A fully duplicate page still advances the cursor
	s.AppendPage(recs("q", 15), true)
	if s.Len() != 35 {
		t.Errorf("expected record count unchanged, got %d", s.Len())
	}
	offset, _, _ = s.Cursor()
	if offset != 55 {
		t.Errorf("expected offset 55 after duplicate page, got %d", offset)
	}
}

func TestInfiniteScrollScenario(t *testing.T) {
	// 50 loaded of 120 total, then two loadMore calls of 50 and 20
	s := New(50)
	s.LoadPage(recs("a", 50), 120, 3)

	s.AppendPage(recs("b", 50), true)
	offset, _, hasMore := s.Cursor()
	if offset != 100 || !hasMore {
		t.Fatalf("after first append: offset=%d hasMore=%v, want 100/true", offset, hasMore)
	}

	s.AppendPage(recs("c", 20), false)
	offset, _, hasMore = s.Cursor()
	if offset != 120 || hasMore {
		t.Fatalf("after second append: offset=%d hasMore=%v, want 120/false", offset, hasMore)
	}
	if s.Len() != 120 {
		t.Errorf("expected 120 records, got %d", s.Len())
	}
}

func TestLoadPageKeepsUnresolvedPlaceholder(t *testing.T) {
	s := New(50)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{Prompt: "hero shot"}))

	s.LoadPage(recs("backend", 50), 50, 1)

	if s.Len() != 51 {
		t.Fatalf("expected 51 records (50 fetched + placeholder), got %d", s.Len())
	}
	got, ok := s.Record("gen-1")
	if !ok {
		t.Fatal("placeholder gen-1 dropped by page load")
	}
	if got.Status != models.StatusPending {
		t.Errorf("placeholder status changed to %s", got.Status)
	}
	offset, _, _ := s.Cursor()
	if offset != 50 {
		t.Errorf("offset counts fetched records only, got %d", offset)
	}
}

func TestAppendPageConfirmsHeldPlaceholder(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 20), 40, 2)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{Prompt: "hero shot"}))

	// The second page carries the backend's copy of gen-1, still processing
	page2 := append([]*models.MediaRecord{
		{ID: "gen-1", Status: models.StatusProcessing, Prompt: "hero shot"},
	}, recs("q", 19)...)
	s.AppendPage(page2, false)

	got, ok := s.Record("gen-1")
	if !ok {
		t.Fatal("placeholder gen-1 dropped by page merge")
	}
	if got.LocalOnly {
		t.Error("a placeholder echoed back in a fetched page must lose its local-only mark")
	}
	assertUniqueIDs(t, s)
}

func TestLoadPageResolvesPlaceholderWithTerminalCopy(t *testing.T) {
	s := New(50)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{}))

	resolved := rec("gen-1")
	s.LoadPage([]*models.MediaRecord{resolved, rec("x")}, 2, 1)

	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}
	got, _ := s.Record("gen-1")
	if got.Status != models.StatusCompleted {
		t.Errorf("fetched terminal copy must replace placeholder, status=%s", got.Status)
	}
	if got.URL == "" {
		t.Error("resolved record lost its URL")
	}
	assertUniqueIDs(t, s)
}

func TestRemoveRecordPrunesSelectionAndFullscreen(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 3), 3, 1)
	s.Select("p-1")
	s.SetFullscreen("p-1")

	removed := s.RemoveRecord("p-1")
	if removed == nil {
		t.Fatal("expected record to be removed")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 records, got %d", s.Len())
	}
	if len(s.SelectedIDs()) != 0 {
		t.Error("selection not pruned after removal")
	}
	if s.FullscreenID() != "" {
		t.Error("fullscreen reference not cleared after removal")
	}
}

func TestRemoveRecordByURL(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 2), 2, 1)

	removed := s.RemoveRecord("https://cdn.example.com/p-0.png")
	if removed == nil || removed.ID != "p-0" {
		t.Fatalf("expected p-0 removed by URL, got %+v", removed)
	}
}

func TestRemoveUnknownRecordIsNoop(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 2), 2, 1)

	if removed := s.RemoveRecord("nope"); removed != nil {
		t.Fatalf("expected nil for unknown id, got %+v", removed)
	}
	if s.Len() != 2 {
		t.Errorf("store mutated by no-op removal")
	}
}

func TestUpsertRecordMergesFields(t *testing.T) {
	s := New(20)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{Prompt: "p"}))

	status := models.StatusCompleted
	url := "https://cdn.example.com/final.png"
	if !s.UpsertRecord("gen-1", RecordPatch{Status: &status, URL: &url}) {
		t.Fatal("expected upsert to find gen-1")
	}

	got, _ := s.Record("gen-1")
	if got.Status != models.StatusCompleted || got.URL != url {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Prompt != "p" {
		t.Error("unpatched field changed")
	}

	if s.UpsertRecord("missing", RecordPatch{Status: &status}) {
		t.Error("upsert of unknown id must be a no-op returning false")
	}
}

func TestAddPlaceholderDuplicateIsNoop(t *testing.T) {
	s := New(20)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{}))
	if s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{})) {
		t.Error("duplicate placeholder id must not be inserted")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 record, got %d", s.Len())
	}
}

func TestAddPlaceholderInsertsAtHead(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 2), 2, 1)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{}))

	records := s.Records()
	if records[0].ID != "gen-1" {
		t.Errorf("placeholder must be first, got %s", records[0].ID)
	}
}

func TestSetFilterResetsCursorsAndList(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 20), 100, 5)
	s.AppendPage(recs("q", 20), true)
	s.Select("p-0")
	s.SetCurrentPage(3)

	s.SetFilter(Filter{FolderID: "folder-1"})

	if s.Len() != 0 {
		t.Errorf("list not cleared on filter change, len=%d", s.Len())
	}
	offset, total, hasMore := s.Cursor()
	if offset != 0 || total != 0 || hasMore {
		t.Errorf("scroll cursor not reset: offset=%d total=%d hasMore=%v", offset, total, hasMore)
	}
	page, totalPages := s.PageCursor()
	if page != 1 || totalPages != 0 {
		t.Errorf("page cursor not reset: page=%d totalPages=%d", page, totalPages)
	}
	if len(s.SelectedIDs()) != 0 {
		t.Error("selection survived filter change")
	}
	if got := s.Filter(); got.FolderID != "folder-1" {
		t.Errorf("filter not applied: %+v", got)
	}
}

func TestSelectUnknownIDIgnored(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 1), 1, 1)
	s.Select("ghost")
	if len(s.SelectedIDs()) != 0 {
		t.Error("selecting an unknown id must be ignored")
	}
}

func TestPendingCount(t *testing.T) {
	s := New(20)
	s.LoadPage(recs("p", 3), 3, 1)
	s.AddPlaceholder(models.NewPlaceholder("gen-1", models.MediaRecord{}))
	s.AddPlaceholder(models.NewPlaceholder("gen-2", models.MediaRecord{}))

	status := models.StatusProcessing
	s.UpsertRecord("gen-2", RecordPatch{Status: &status})

	if got := s.PendingCount(); got != 2 {
		t.Errorf("expected 2 unresolved records, got %d", got)
	}
}
