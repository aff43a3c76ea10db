package frontier

import "sync"

// SeenSet is the run-scoped vacancy id dedup set. Listing page 0 items are
// re-discovered by the page 1..N loop, so concurrent check-and-insert must
// admit each id exactly once.
type SeenSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewSeenSet constructs an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{ids: make(map[string]struct{})}
}

// Add inserts id and reports whether it was newly added.
func (s *SeenSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len reports how many distinct ids have been admitted.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
