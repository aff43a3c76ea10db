package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
	publishmemory "github.com/vkarmanov/vacancy-harvester/internal/publish/memory"
	sinkmemory "github.com/vkarmanov/vacancy-harvester/internal/sink/memory"
)

// fakeFetcher serves canned bodies keyed by URL. Unknown URLs fail the test
// fast instead of silently abandoning a branch.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string][]byte
	errs      map[string]error
	calls     map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *fakeFetcher) respond(url, body string) {
	f.responses[url] = []byte(body)
}

func (f *fakeFetcher) fail(url string, err error) {
	f.errs[url] = err
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.responses[url]
	if !ok {
		return nil, fmt.Errorf("unexpected fetch of %s", url)
	}
	return body, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type failingSink struct {
	err error
}

func (s *failingSink) Upsert(context.Context, *harvest.VacancyRecord) error { return s.err }
func (s *failingSink) Close(context.Context) error                          { return nil }

const testBase = "https://api.test"

func testConfig(workers int) Config {
	return Config{
		BaseURL:         testBase,
		CountryAreaCode: "113",
		PerPage:         100,
		Workers:         workers,
		ShuffleAreas:    false,
	}
}

func TestDriverFullTraversal(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas",
		`[{"id":"40","areas":[{"id":"999"}]},{"id":"113","areas":[{"id":"1"},{"id":"2"}]}]`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1",
		`{"pages":1,"items":[{"id":"42"}]}`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1&page=1",
		`{"pages":1,"items":[{"id":"42"}]}`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=2",
		`{"pages":0,"items":[{"id":"43"}]}`)
	fetcher.respond(testBase+"/vacancies/42",
		`{"id":"42","name":"Go developer","area":null,"employer":{"id":"9","name":"Acme"}}`)
	fetcher.respond(testBase+"/vacancies/43",
		`{"id":"43"}`)

	sink := sinkmemory.NewStore()
	publisher := publishmemory.New()
	driver := New(fetcher, sink, publisher, testConfig(4), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(2), snap.AreasDiscovered)
	require.Equal(t, int64(3), snap.ListingPagesFetched)
	require.Equal(t, int64(2), snap.VacanciesAttempted)
	require.Equal(t, int64(2), snap.VacanciesPersisted)
	require.Zero(t, snap.FetchFailures)
	require.Zero(t, snap.MalformedRecords)
	require.Zero(t, snap.SinkFailures)

	require.Equal(t, 2, sink.Len())
	rec := sink.Get("42")
	require.NotNil(t, rec)
	require.Equal(t, "Go developer", *rec.Name)
	require.Nil(t, rec.Area)
	require.Equal(t, "9", *rec.Employer.ID)

	// Page 1 re-lists vacancy 42; dedup keeps it to one detail fetch.
	require.Equal(t, 1, fetcher.callCount(testBase+"/vacancies/42"))
	require.ElementsMatch(t, []string{"42", "43"}, publisher.Published())
}

func TestDriverDedupAcrossPages(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"}]}]`)
	listing := `{"pages":3,"items":[{"id":"7"},{"id":"8"}]}`
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1", listing)
	for page := 1; page <= 3; page++ {
		fetcher.respond(fmt.Sprintf("%s/vacancies?per_page=100&area=1&page=%d", testBase, page), listing)
	}
	fetcher.respond(testBase+"/vacancies/7", `{"id":"7"}`)
	fetcher.respond(testBase+"/vacancies/8", `{"id":"8"}`)

	sink := sinkmemory.NewStore()
	driver := New(fetcher, sink, nil, testConfig(8), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(4), snap.ListingPagesFetched)
	require.Equal(t, int64(2), snap.VacanciesAttempted)
	require.Equal(t, int64(2), snap.VacanciesPersisted)
	require.Equal(t, 1, fetcher.callCount(testBase+"/vacancies/7"))
	require.Equal(t, 1, fetcher.callCount(testBase+"/vacancies/8"))
}

func TestDriverEmptyAreaDiscovery(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"40","areas":[{"id":"5"}]}]`)

	sink := sinkmemory.NewStore()
	driver := New(fetcher, sink, nil, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Zero(t, snap.AreasDiscovered)
	require.Equal(t, int64(1), snap.EmptyDiscoveries)
	require.Zero(t, sink.Len())
}

func TestDriverFetchFailureStaysLocal(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"},{"id":"2"}]}]`)
	fetcher.fail(testBase+"/vacancies?per_page=100&area=1",
		&harvest.FetchError{URL: testBase + "/vacancies?per_page=100&area=1", StatusCode: 503})
	fetcher.respond(testBase+"/vacancies?per_page=100&area=2", `{"pages":0,"items":[{"id":"43"}]}`)
	fetcher.respond(testBase+"/vacancies/43", `{"id":"43"}`)

	sink := sinkmemory.NewStore()
	driver := New(fetcher, sink, nil, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(1), snap.FetchFailures)
	require.Equal(t, int64(1), snap.VacanciesPersisted)
	require.Equal(t, 1, sink.Len())
}

func TestDriverMalformedDetailDoesNotPersist(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"}]}]`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1", `{"pages":0,"items":[{"id":"42"}]}`)
	fetcher.respond(testBase+"/vacancies/42", `{"name":"no id here"}`)

	sink := sinkmemory.NewStore()
	driver := New(fetcher, sink, nil, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(1), snap.VacanciesAttempted)
	require.Equal(t, int64(1), snap.MalformedRecords)
	require.Zero(t, snap.VacanciesPersisted)
	require.Zero(t, sink.Len())
}

func TestDriverSinkFailureCounted(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"}]}]`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1", `{"pages":0,"items":[{"id":"42"}]}`)
	fetcher.respond(testBase+"/vacancies/42", `{"id":"42"}`)

	driver := New(fetcher, &failingSink{err: errors.New("connection refused")}, nil, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(1), snap.SinkFailures)
	require.Zero(t, snap.VacanciesPersisted)
}

func TestDriverPublishFailureDoesNotUndoPersist(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"}]}]`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1", `{"pages":0,"items":[{"id":"42"}]}`)
	fetcher.respond(testBase+"/vacancies/42", `{"id":"42"}`)

	sink := sinkmemory.NewStore()
	publisher := publishmemory.New()
	publisher.FailWith(errors.New("topic unavailable"))
	driver := New(fetcher, sink, publisher, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(1), snap.VacanciesPersisted)
	require.Equal(t, int64(1), snap.PublishFailures)
	require.Equal(t, 1, sink.Len())
}

func TestDriverEmptyListingCounted(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.respond(testBase+"/areas", `[{"id":"113","areas":[{"id":"1"}]}]`)
	fetcher.respond(testBase+"/vacancies?per_page=100&area=1", `{"pages":0,"items":[]}`)

	sink := sinkmemory.NewStore()
	driver := New(fetcher, sink, nil, testConfig(2), nil, nil)

	snap := driver.Run(context.Background())

	require.Equal(t, int64(1), snap.AreasDiscovered)
	require.Equal(t, int64(1), snap.EmptyDiscoveries)
	require.Zero(t, sink.Len())
}

// blockingFetcher parks every Fetch call until its context ends.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDriverCancellationDrains(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	driver := New(blockingFetcher{}, sinkmemory.NewStore(), nil, testConfig(4), nil, nil)

	done := make(chan harvest.TallySnapshot, 1)
	go func() {
		done <- driver.Run(ctx)
	}()

	select {
	case snap := <-done:
		require.GreaterOrEqual(t, snap.FetchFailures, int64(1))
	case <-time.After(2 * time.Second):
		t.Fatal("run did not drain after cancellation")
	}
}
