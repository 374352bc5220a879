package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/metrics"
	"github.com/amelner/gallerysync/internal/models"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/store"
)

// FolderController manages folder CRUD and bulk reassignment of record
// membership. Counts are server-derived, so every mutation reloads the full
// folder list instead of adjusting counts locally.
type FolderController struct {
	store   *store.Store
	backend backend.Service
	logger  *logrus.Logger

	// refresher re-fetches the record list after the active filter is reset;
	// wired to the loader once both controllers exist
	refresher func(ctx context.Context) error

	mu      sync.Mutex
	folders []*models.Folder
}

// NewFolderController creates a new folder controller
func NewFolderController(st *store.Store, svc backend.Service, logger *logrus.Logger) *FolderController {
	return &FolderController{
		store:   st,
		backend: svc,
		logger:  logger,
	}
}

// SetRefresher wires the record refresh used after a filter reset
func (c *FolderController) SetRefresher(refresher func(ctx context.Context) error) {
	c.refresher = refresher
}

// Folders returns a copy of the current folder list
func (c *FolderController) Folders() []models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Folder, len(c.folders))
	for i, f := range c.folders {
		out[i] = *f
	}
	return out
}

// Folder returns the folder matching id
func (c *FolderController) Folder(id string) (models.Folder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.folders {
		if f.ID == id {
			return *f, true
		}
	}
	return models.Folder{}, false
}

// ResolveFolderID maps a record's folder reference to a live folder id. A
// reference to a folder that no longer exists degrades to uncategorized.
func (c *FolderController) ResolveFolderID(folderID string) string {
	if folderID == "" {
		return ""
	}
	if _, ok := c.Folder(folderID); !ok {
		return ""
	}
	return folderID
}

// Reload fetches the authoritative folder list
func (c *FolderController) Reload(ctx context.Context) error {
	folders, err := c.backend.ListFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to list folders: %w", err)
	}
	c.setFolders(folders)
	return nil
}

func (c *FolderController) setFolders(folders []*models.Folder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folders = folders
}

// CreateFolder creates a folder remotely and reloads the list
func (c *FolderController) CreateFolder(ctx context.Context, input backend.FolderInput) (*models.Folder, error) {
	folder, err := c.backend.CreateFolder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	if err := c.Reload(ctx); err != nil {
		c.logger.WithError(err).Error("Failed to reload folders after create")
	}

	c.logger.WithFields(logrus.Fields{
		"folder_id": folder.ID,
		"name":      folder.Name,
	}).Info("Folder created")
	return folder, nil
}

// UpdateFolder updates a folder remotely and reloads the list
func (c *FolderController) UpdateFolder(ctx context.Context, id string, input backend.FolderInput) error {
	if _, err := c.backend.UpdateFolder(ctx, id, input); err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}

	if err := c.Reload(ctx); err != nil {
		c.logger.WithError(err).Error("Failed to reload folders after update")
	}
	return nil
}

// DeleteFolder deletes a folder remotely. If the active filter points at the
// deleted folder it is reset to "all" first, so the UI never shows a filter
// for a folder that no longer exists.
func (c *FolderController) DeleteFolder(ctx context.Context, id string) error {
	filterReset := false
	if c.store.Filter().FolderID == id {
		c.store.SetFilter(store.Filter{})
		filterReset = true
	}

	if err := c.backend.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	if err := c.Reload(ctx); err != nil {
		c.logger.WithError(err).Error("Failed to reload folders after delete")
	}

	if filterReset && c.refresher != nil {
		if err := c.refresher(ctx); err != nil {
			c.logger.WithError(err).Error("Failed to refresh records after filter reset")
		}
	}

	c.logger.WithField("folder_id", id).Info("Folder deleted")
	return nil
}

// MoveRecordsToFolder reassigns records to a folder, local state first. The
// remote reassignment failing does not roll the local move back; the next
// reconciliation settles any drift.
func (c *FolderController) MoveRecordsToFolder(ctx context.Context, ids []string, folderID string) error {
	if folderID != "" {
		if _, ok := c.Folder(folderID); !ok {
			return fmt.Errorf("unknown folder: %s", folderID)
		}
	}

	for _, id := range ids {
		target := folderID
		c.store.UpsertRecord(id, store.RecordPatch{FolderID: &target})
	}

	err := c.backend.BulkMoveToFolder(ctx, ids, folderID)
	if err != nil {
		metrics.MutationFailuresTotal.WithLabelValues("move").Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"count":     len(ids),
			"folder_id": folderID,
		}).Error("Bulk move failed remotely, keeping local assignment")
	}

	if reloadErr := c.Reload(ctx); reloadErr != nil {
		c.logger.WithError(reloadErr).Error("Failed to reload folder counts after move")
	}
	return err
}
