package controllers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/metrics"
	"github.com/amelner/gallerysync/internal/models"
	"github.com/amelner/gallerysync/internal/services/backend"
	"github.com/amelner/gallerysync/internal/store"
)

// MutationController applies user-initiated edits to the record store first
// and persists them remotely after. Local state is the source of truth: a
// remote failure after the optimistic apply is logged, never rolled back.
type MutationController struct {
	store   *store.Store
	backend backend.Service
	logger  *logrus.Logger
}

// NewMutationController creates a new mutation controller
func NewMutationController(st *store.Store, svc backend.Service, logger *logrus.Logger) *MutationController {
	return &MutationController{
		store:   st,
		backend: svc,
		logger:  logger,
	}
}

// DeleteRecord removes the record matching id or URL from the store
// immediately, then issues the remote delete. The local removal stands
// regardless of the remote outcome: a duplicate remote delete is safe, a
// deleted item reappearing in the gallery is not. Placeholders the backend
// never echoed back skip the remote call entirely; backend-originated
// records always get it, even while still pending, or the surviving remote
// row would resurface on the next reconciliation.
func (c *MutationController) DeleteRecord(ctx context.Context, idOrURL string) bool {
	removed := c.store.RemoveRecord(idOrURL)
	if removed == nil {
		return false
	}
	metrics.RecordsHeld.Set(float64(c.store.Len()))

	if removed.LocalOnly {
		c.logger.WithField("record_id", removed.ID).Debug("Deleted local-only placeholder, skipping remote delete")
		return true
	}

	if err := c.backend.DeleteRecord(ctx, removed.ID); err != nil {
		metrics.MutationFailuresTotal.WithLabelValues("delete").Inc()
		c.logger.WithError(err).WithField("record_id", removed.ID).Error("Remote delete failed, local removal kept")
		return true
	}

	c.logger.WithField("record_id", removed.ID).Info("Record deleted")
	return true
}

// UpdateReferenceTag applies the new tag to the store synchronously, then
// persists it remotely. The tag is a convenience annotation: a remote failure
// keeps the local value and is only logged.
func (c *MutationController) UpdateReferenceTag(ctx context.Context, id, tag string) error {
	normalized := tag
	if normalized != "" && !strings.HasPrefix(normalized, "@") {
		normalized = "@" + normalized
	}

	if !c.store.UpsertRecord(id, store.RecordPatch{ReferenceTag: &normalized}) {
		return fmt.Errorf("record not found: %s", id)
	}

	if err := c.backend.UpdateReferenceTag(ctx, id, normalized); err != nil {
		metrics.MutationFailuresTotal.WithLabelValues("reference").Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"record_id": id,
			"reference": normalized,
		}).Warn("Remote reference update failed, keeping local value")
	}
	return nil
}

// AddGeneration inserts a pending placeholder the instant a generation
// request is accepted, so the UI reflects work-in-progress before any remote
// confirmation exists. Returns the placeholder.
func (c *MutationController) AddGeneration(seed models.MediaRecord) *models.MediaRecord {
	id := "gen_" + uuid.NewString()
	rec := models.NewPlaceholder(id, seed)
	c.store.AddPlaceholder(rec)
	metrics.RecordsHeld.Set(float64(c.store.Len()))

	c.logger.WithFields(logrus.Fields{
		"record_id": id,
		"source":    rec.Source,
	}).Info("Placeholder added for accepted generation")
	return rec
}

// CompleteGeneration resolves a placeholder to completed with its final URL
func (c *MutationController) CompleteGeneration(id, url string) error {
	rec, ok := c.store.Record(id)
	if !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	if err := rec.MarkCompleted(url); err != nil {
		return err
	}
	c.store.UpsertRecord(id, store.RecordPatch{
		Status:    &rec.Status,
		URL:       &rec.URL,
		LocalOnly: &rec.LocalOnly,
	})
	return nil
}

// FailGeneration resolves a placeholder to failed. Retrying creates a fresh
// placeholder under a new id; there is no transition out of failed.
func (c *MutationController) FailGeneration(id, reason string) error {
	rec, ok := c.store.Record(id)
	if !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	if err := rec.MarkFailed(reason); err != nil {
		return err
	}
	c.store.UpsertRecord(id, store.RecordPatch{
		Status:      &rec.Status,
		LocalOnly:   &rec.LocalOnly,
		Persistence: &rec.Persistence,
	})
	return nil
}
