// Package memory provides a map-backed sink for development and testing.
package memory

import (
	"context"
	"sync"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// Store keeps the latest record per vacancy id in memory. Upsert has
// replace semantics: the last write for an id wins.
type Store struct {
	mu      sync.RWMutex
	records map[string]*harvest.VacancyRecord
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]*harvest.VacancyRecord)}
}

// Upsert stores record, overwriting any previous version of the same id.
func (s *Store) Upsert(_ context.Context, record *harvest.VacancyRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

// Get returns the stored record for id, or nil if absent.
func (s *Store) Get(id string) *harvest.VacancyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// Len reports the number of distinct stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close implements harvest.Sink; it performs no action.
func (s *Store) Close(context.Context) error {
	return nil
}
