package harvest

import (
	"context"
	"time"
)

// Fetcher resolves a URL into a raw response body. Implementations own
// transport concerns: pooling, timeouts, rate limiting and retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sink persists canonical vacancy records with replace semantics keyed by
// record ID. Implementations must be safe for concurrent calls.
type Sink interface {
	Upsert(ctx context.Context, record *VacancyRecord) error
	Close(ctx context.Context) error
}

// Publisher pushes per-record completion notifications downstream.
type Publisher interface {
	Publish(ctx context.Context, vacancyID string) error
	Close() error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
