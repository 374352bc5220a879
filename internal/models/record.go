package models

import (
	"fmt"
	"time"
)

// Persistence tracks whether the artifact is durably stored remotely.
// Freshly generated artifacts live on a transient provider URL until the
// backend finishes copying them into permanent storage.
type Persistence struct {
	Durable      bool
	TemporaryURL string
	StoragePath  string
	Error        string
}

// MediaRecord is one generated artifact in the user's gallery
type MediaRecord struct {
	ID  string `boltholdKey:"ID"`
	URL string // empty while Status is pending/processing

	Status Status

	// FolderID references a Folder; empty means uncategorized. A reference
	// to a deleted folder degrades to uncategorized at read time.
	FolderID string `boltholdIndex:"FolderID"`

	// ReferenceTag is a user-assigned short label (e.g. "@hero"), globally
	// non-unique
	ReferenceTag string

	// LocalOnly marks a record created locally that the backend has not yet
	// echoed back. The backend can legitimately serve unresolved records with
	// an empty URL, so origin is tracked explicitly instead of inferred from
	// field shape. Cleared when the id arrives in a fetched page or the
	// record reaches a terminal status.
	LocalOnly bool

	Prompt string
	Model  string
	Source Source

	CreatedAt   time.Time
	Persistence Persistence
}

// NewPlaceholder builds a pending record for a generation request the backend
// has not confirmed yet. The id is locally generated and the backend is
// expected to echo it back unchanged.
func NewPlaceholder(id string, seed MediaRecord) *MediaRecord {
	rec := seed
	rec.ID = id
	rec.URL = ""
	rec.Status = StatusPending
	rec.LocalOnly = true
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return &rec
}

// MarkProcessing transitions a pending record to processing
func (r *MediaRecord) MarkProcessing() error {
	if r.Status != StatusPending {
		return fmt.Errorf("cannot mark %s record as processing", r.Status)
	}
	r.Status = StatusProcessing
	return nil
}

// MarkCompleted transitions an unresolved record to completed. A completed
// record always carries a resolved URL.
func (r *MediaRecord) MarkCompleted(url string) error {
	if !r.Status.Unresolved() {
		return fmt.Errorf("cannot complete %s record", r.Status)
	}
	if url == "" {
		return fmt.Errorf("completed record requires a URL")
	}
	r.Status = StatusCompleted
	r.URL = url
	// a resolved URL only ever comes from the backend
	r.LocalOnly = false
	return nil
}

// MarkFailed transitions an unresolved record to failed. There is no
// transition out of failed; a retry creates a fresh placeholder.
func (r *MediaRecord) MarkFailed(reason string) error {
	if !r.Status.Unresolved() {
		return fmt.Errorf("cannot fail %s record", r.Status)
	}
	r.Status = StatusFailed
	r.Persistence.Error = reason
	// the failure was reported by the backend, so a row exists remotely
	r.LocalOnly = false
	return nil
}

// Folder groups media records. Counts are server-derived, never maintained
// locally.
type Folder struct {
	ID          string `boltholdKey:"ID"`
	Name        string
	Color       string
	OwnerID     string
	RecordCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
