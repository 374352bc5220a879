// Package store holds the canonical in-memory view of the user's gallery:
// the record list, both pagination cursors, the selection set and the active
// filter. It is pure state with transition methods; all I/O lives in the
// controllers that feed it.
package store

import (
	"sync"

	"github.com/amelner/gallerysync/internal/models"
)

// Filter describes the active result-set filter. Changing any field starts a
// new result set, so both cursors reset and the list is cleared.
type Filter struct {
	FolderID    string
	SearchQuery string
	Source      models.Source
}

// RecordPatch is a partial update merged into an existing record. Nil fields
// are left untouched.
type RecordPatch struct {
	URL          *string
	Status       *models.Status
	FolderID     *string
	ReferenceTag *string
	LocalOnly    *bool
	Persistence  *models.Persistence
}

// Store is the record store. All methods are synchronous and safe for
// concurrent use.
type Store struct {
	mu sync.Mutex

	records  []*models.MediaRecord
	selected map[string]struct{}

	// fullscreenID references the record currently viewed fullscreen, if any
	fullscreenID string

	filter Filter

	// Offset-accumulating cursor (infinite scroll)
	pageSize   int
	offset     int
	hasMore    bool
	totalKnown int

	// Page-indexed cursor (jump-to-page browsing)
	currentPage int
	totalPages  int
}

// New creates an empty store with the given page size
func New(pageSize int) *Store {
	return &Store{
		selected:    make(map[string]struct{}),
		pageSize:    pageSize,
		currentPage: 1,
	}
}

// LoadPage replaces the backend-loaded portion of the list with a
// de-duplicated copy of records (first occurrence wins) while keeping local
// placeholders that the fetched page has not resolved to a terminal status.
// A fetched record with the same id as a placeholder is authoritative and
// replaces it. The offset cursor is recomputed, never set by hand.
func (s *Store) LoadPage(records []*models.MediaRecord, total, totalPages int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetched := dedupe(records)
	fetchedIDs := make(map[string]struct{}, len(fetched))
	for _, rec := range fetched {
		fetchedIDs[rec.ID] = struct{}{}
	}

	var kept []*models.MediaRecord
	for _, rec := range s.records {
		if !rec.Status.Unresolved() {
			continue
		}
		if _, replaced := fetchedIDs[rec.ID]; replaced {
			continue
		}
		kept = append(kept, rec)
	}

	s.records = append(kept, fetched...)
	s.offset = len(fetched)
	s.totalKnown = total
	s.hasMore = s.offset < total
	s.totalPages = totalPages
	s.pruneSelectionLocked()
}

// AppendPage merges the next infinite-scroll page into the list. Records whose
// id is already present are dropped, but the offset cursor still advances by
// the full length of the fetched page so that the next request starts where
// the backend left off.
func (s *Store) AppendPage(records []*models.MediaRecord, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]*models.MediaRecord, len(s.records))
	for _, rec := range s.records {
		seen[rec.ID] = rec
	}

	for _, rec := range dedupe(records) {
		if held, dup := seen[rec.ID]; dup {
			// the backend echoed the id back, so the held record is confirmed
			held.LocalOnly = false
			continue
		}
		seen[rec.ID] = rec
		s.records = append(s.records, rec)
	}

	s.offset += len(records)
	s.hasMore = hasMore
}

// UpsertRecord merges patch fields into the record matching id. Returns false
// if no record matches.
func (s *Store) UpsertRecord(id string, patch RecordPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findLocked(id)
	if rec == nil {
		return false
	}

	if patch.URL != nil {
		rec.URL = *patch.URL
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.FolderID != nil {
		rec.FolderID = *patch.FolderID
	}
	if patch.ReferenceTag != nil {
		rec.ReferenceTag = *patch.ReferenceTag
	}
	if patch.LocalOnly != nil {
		rec.LocalOnly = *patch.LocalOnly
	}
	if patch.Persistence != nil {
		rec.Persistence = *patch.Persistence
	}
	return true
}

// RemoveRecord removes the record matching id or URL, prunes it from the
// selection set and clears the fullscreen reference if it pointed there.
// Returns the removed record, or nil if nothing matched.
func (s *Store) RemoveRecord(idOrURL string) *models.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		matched := rec.ID == idOrURL || (rec.URL != "" && rec.URL == idOrURL)
		if !matched {
			continue
		}
		s.records = append(s.records[:i], s.records[i+1:]...)
		delete(s.selected, rec.ID)
		if s.fullscreenID == rec.ID {
			s.fullscreenID = ""
		}
		return rec
	}
	return nil
}

// AddPlaceholder inserts a pending record at the head of the list. A record
// with the same id already present wins and the call is a no-op.
func (s *Store) AddPlaceholder(rec *models.MediaRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(rec.ID) != nil {
		return false
	}
	s.records = append([]*models.MediaRecord{rec}, s.records...)
	return true
}

// SetFilter switches the active result set. Both cursors reset and the list,
// selection and fullscreen reference are cleared so result sets from
// different filters never mix.
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter = f
	s.records = nil
	s.selected = make(map[string]struct{})
	s.fullscreenID = ""
	s.offset = 0
	s.hasMore = false
	s.totalKnown = 0
	s.currentPage = 1
	s.totalPages = 0
}

// Filter returns the active filter
func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetCurrentPage records the page-indexed cursor position
func (s *Store) SetCurrentPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentPage = page
}

// Select marks a record as selected. Unknown ids are ignored.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) != nil {
		s.selected[id] = struct{}{}
	}
}

// Deselect removes a record from the selection set
func (s *Store) Deselect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
}

// ClearSelection empties the selection set
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
}

// SelectedIDs returns the ids currently selected
func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.selected))
	for _, rec := range s.records {
		if _, ok := s.selected[rec.ID]; ok {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// SetFullscreen points the fullscreen reference at a record. An empty id or
// an unknown id clears it.
func (s *Store) SetFullscreen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.findLocked(id) == nil {
		id = ""
	}
	s.fullscreenID = id
}

// FullscreenID returns the id of the record viewed fullscreen, if any
func (s *Store) FullscreenID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullscreenID
}

// Record returns a copy of the record matching id
func (s *Store) Record(id string) (models.MediaRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.findLocked(id); rec != nil {
		return *rec, true
	}
	return models.MediaRecord{}, false
}

// Records returns a copy of the current list
func (s *Store) Records() []models.MediaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MediaRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = *rec
	}
	return out
}

// Len returns the number of records currently held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// PendingCount returns how many records are still pending or processing
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, rec := range s.records {
		if rec.Status.Unresolved() {
			count++
		}
	}
	return count
}

// Cursor reports the infinite-scroll cursor state
func (s *Store) Cursor() (offset, totalKnown int, hasMore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.totalKnown, s.hasMore
}

// PageCursor reports the page-indexed cursor state
func (s *Store) PageCursor() (currentPage, totalPages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage, s.totalPages
}

// PageSize returns the configured page size
func (s *Store) PageSize() int {
	return s.pageSize
}

// StatusCounts returns the number of records per status
func (s *Store) StatusCounts() map[models.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.Status]int)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}

func (s *Store) findLocked(id string) *models.MediaRecord {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (s *Store) pruneSelectionLocked() {
	if len(s.selected) == 0 && s.fullscreenID == "" {
		return
	}
	present := make(map[string]struct{}, len(s.records))
	for _, rec := range s.records {
		present[rec.ID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
	if s.fullscreenID != "" {
		if _, ok := present[s.fullscreenID]; !ok {
			s.fullscreenID = ""
		}
	}
}

// dedupe drops later occurrences of duplicate ids, first occurrence wins
func dedupe(records []*models.MediaRecord) []*models.MediaRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]*models.MediaRecord, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}
