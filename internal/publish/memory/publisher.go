// Package memory contains an in-memory publisher implementation for tests.
package memory

import (
	"context"
	"sync"
)

// Publisher records published vacancy ids for inspection.
type Publisher struct {
	mu  sync.RWMutex
	ids []string
	err error
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the vacancy id.
func (p *Publisher) Publish(_ context.Context, vacancyID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, vacancyID)
	return nil
}

// Published returns the recorded vacancy ids.
func (p *Publisher) Published() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// FailWith makes subsequent Publish calls return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Close implements harvest.Publisher; it performs no action.
func (p *Publisher) Close() error {
	return nil
}
