// Package badger provides an embedded document-store sink backed by
// BadgerHold, useful when no external database is available.
package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// Store persists vacancy documents in an embedded Badger database, keyed by
// the external vacancy id.
type Store struct {
	store *badgerhold.Store
}

// NewStore opens (or creates) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sink.badger.path is required")
	}
	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{store: store}, nil
}

// Upsert inserts or replaces the document for record.ID.
func (s *Store) Upsert(_ context.Context, record *harvest.VacancyRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if err := s.store.Upsert(record.ID, record); err != nil {
		return fmt.Errorf("upsert vacancy %s: %w", record.ID, err)
	}
	return nil
}

// Get returns the stored record for id.
func (s *Store) Get(id string) (*harvest.VacancyRecord, error) {
	var record harvest.VacancyRecord
	if err := s.store.Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("vacancy not found: %s", id)
		}
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}
	return &record, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close(context.Context) error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close badger store: %w", err)
	}
	return nil
}
