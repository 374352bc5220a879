// Package snapshot persists the last successfully loaded page-1 record list
// so a cold start can render the previous gallery before the network answers.
// The snapshot is never authoritative: the first successful load replaces it.
package snapshot

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"

	"github.com/amelner/gallerysync/internal/models"
)

// Store wraps the bolthold snapshot database
type Store struct {
	store *bolthold.Store
}

// Open opens (or creates) the snapshot database
func Open(path string) (*Store, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	return &Store{store: store}, nil
}

// Close closes the snapshot database
func (s *Store) Close() error {
	return s.store.Close()
}

// Save replaces the stored snapshot with the given records in one
// transaction. Placeholders are skipped: a pending record from a previous
// session can never resolve, so resurrecting it would only wedge the UI.
func (s *Store) Save(records []models.MediaRecord) error {
	return s.store.Bolt().Update(func(tx *bbolt.Tx) error {
		if err := s.store.TxDeleteMatching(tx, &models.MediaRecord{}, nil); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
		for i := range records {
			rec := records[i]
			if rec.Status.Unresolved() {
				continue
			}
			if err := s.store.TxInsert(tx, rec.ID, &rec); err != nil {
				return fmt.Errorf("failed to store record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// Load returns the stored snapshot in descending creation order
func (s *Store) Load() ([]*models.MediaRecord, error) {
	var records []*models.MediaRecord
	if err := s.store.Find(&records, (&bolthold.Query{}).SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return records, nil
}
