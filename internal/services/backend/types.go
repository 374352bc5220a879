package backend

import (
	"context"
	"time"

	"github.com/amelner/gallerysync/internal/models"
)

// RecordQuery narrows a page request to the active filter
type RecordQuery struct {
	FolderID    string
	SearchQuery string
	Source      models.Source
}

// RecordPage is one page of the authoritative record list
type RecordPage struct {
	Records    []*models.MediaRecord
	Total      int
	TotalPages int
}

// FolderInput carries user-editable folder fields
type FolderInput struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Service is the backend contract the sync core consumes
type Service interface {
	LoadPageOfRecords(ctx context.Context, page, pageSize int, q RecordQuery) (*RecordPage, error)
	TotalRecordCount(ctx context.Context) (int, error)
	DeleteRecord(ctx context.Context, id string) error
	UpdateReferenceTag(ctx context.Context, id, tag string) error

	ListFolders(ctx context.Context) ([]*models.Folder, error)
	CreateFolder(ctx context.Context, input FolderInput) (*models.Folder, error)
	UpdateFolder(ctx context.Context, id string, input FolderInput) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	BulkMoveToFolder(ctx context.Context, ids []string, folderID string) error
}

// recordRow is the wire representation of a gallery record
type recordRow struct {
	ID           string    `json:"id"`
	PublicURL    string    `json:"public_url"`
	Status       string    `json:"status"`
	FolderID     string    `json:"folder_id,omitempty"`
	Reference    string    `json:"reference,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	Model        string    `json:"model,omitempty"`
	Source       string    `json:"source,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsPermanent  bool      `json:"is_permanent"`
	TemporaryURL string    `json:"temporary_url,omitempty"`
	StoragePath  string    `json:"storage_path,omitempty"`
	PersistError string    `json:"persist_error,omitempty"`
}

func (r recordRow) toModel() *models.MediaRecord {
	status := models.Status(r.Status)
	if !status.Terminal() && !status.Unresolved() {
		// Unknown status from a newer backend degrades to processing so the
		// record is never hidden
		status = models.StatusProcessing
	}
	return &models.MediaRecord{
		ID:           r.ID,
		URL:          r.PublicURL,
		Status:       status,
		FolderID:     r.FolderID,
		ReferenceTag: r.Reference,
		Prompt:       r.Prompt,
		Model:        r.Model,
		Source:       models.Source(r.Source),
		CreatedAt:    r.CreatedAt,
		Persistence: models.Persistence{
			Durable:      r.IsPermanent,
			TemporaryURL: r.TemporaryURL,
			StoragePath:  r.StoragePath,
			Error:        r.PersistError,
		},
	}
}

// folderRow is the wire representation of a folder
type folderRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	OwnerID     string    `json:"owner_id"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f folderRow) toModel() *models.Folder {
	return &models.Folder{
		ID:          f.ID,
		Name:        f.Name,
		Color:       f.Color,
		OwnerID:     f.OwnerID,
		RecordCount: f.RecordCount,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}
