package harvest

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Tally accumulates run-level counters. All methods are safe for concurrent
// use; the frontier increments from many worker goroutines at once.
type Tally struct {
	areasDiscovered     atomic.Int64
	listingPagesFetched atomic.Int64
	vacanciesAttempted  atomic.Int64
	vacanciesPersisted  atomic.Int64
	fetchFailures       atomic.Int64
	malformedRecords    atomic.Int64
	sinkFailures        atomic.Int64
	emptyDiscoveries    atomic.Int64
	publishFailures     atomic.Int64
}

// TallySnapshot is a point-in-time copy of the counters, suitable for the
// final run report and the status endpoint.
type TallySnapshot struct {
	AreasDiscovered     int64 `json:"areas_discovered"`
	ListingPagesFetched int64 `json:"listing_pages_fetched"`
	VacanciesAttempted  int64 `json:"vacancies_attempted"`
	VacanciesPersisted  int64 `json:"vacancies_persisted"`
	FetchFailures       int64 `json:"fetch_failures"`
	MalformedRecords    int64 `json:"malformed_records"`
	SinkFailures        int64 `json:"sink_failures"`
	EmptyDiscoveries    int64 `json:"empty_discoveries"`
	PublishFailures     int64 `json:"publish_failures"`
}

// AddAreas records discovered area count.
func (t *Tally) AddAreas(n int) { t.areasDiscovered.Add(int64(n)) }

// IncListingPage records one fetched listing page.
func (t *Tally) IncListingPage() { t.listingPagesFetched.Add(1) }

// IncAttempted records one scheduled detail fetch execution.
func (t *Tally) IncAttempted() { t.vacanciesAttempted.Add(1) }

// IncPersisted records one record accepted by the sink.
func (t *Tally) IncPersisted() { t.vacanciesPersisted.Add(1) }

// IncFetchFailure records an abandoned branch due to a fetch/mapping failure.
func (t *Tally) IncFetchFailure() { t.fetchFailures.Add(1) }

// IncMalformed records a detail payload that failed the mapping contract.
func (t *Tally) IncMalformed() { t.malformedRecords.Add(1) }

// IncSinkFailure records an upsert failure.
func (t *Tally) IncSinkFailure() { t.sinkFailures.Add(1) }

// IncEmptyDiscovery records a branch that yielded zero entries.
func (t *Tally) IncEmptyDiscovery() { t.emptyDiscoveries.Add(1) }

// IncPublishFailure records a failed downstream notification.
func (t *Tally) IncPublishFailure() { t.publishFailures.Add(1) }

// Snapshot returns a consistent-enough copy of all counters.
func (t *Tally) Snapshot() TallySnapshot {
	return TallySnapshot{
		AreasDiscovered:     t.areasDiscovered.Load(),
		ListingPagesFetched: t.listingPagesFetched.Load(),
		VacanciesAttempted:  t.vacanciesAttempted.Load(),
		VacanciesPersisted:  t.vacanciesPersisted.Load(),
		FetchFailures:       t.fetchFailures.Load(),
		MalformedRecords:    t.malformedRecords.Load(),
		SinkFailures:        t.sinkFailures.Load(),
		EmptyDiscoveries:    t.emptyDiscoveries.Load(),
		PublishFailures:     t.publishFailures.Load(),
	}
}

// Fields renders the snapshot as zap fields for the end-of-run report.
func (s TallySnapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("areas_discovered", s.AreasDiscovered),
		zap.Int64("listing_pages_fetched", s.ListingPagesFetched),
		zap.Int64("vacancies_attempted", s.VacanciesAttempted),
		zap.Int64("vacancies_persisted", s.VacanciesPersisted),
		zap.Int64("fetch_failures", s.FetchFailures),
		zap.Int64("malformed_records", s.MalformedRecords),
		zap.Int64("sink_failures", s.SinkFailures),
		zap.Int64("empty_discoveries", s.EmptyDiscoveries),
		zap.Int64("publish_failures", s.PublishFailures),
	}
}
