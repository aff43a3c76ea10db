package frontier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
	"github.com/vkarmanov/vacancy-harvester/internal/mapper"
	"github.com/vkarmanov/vacancy-harvester/internal/metrics"
)

// Config controls Driver behavior.
type Config struct {
	BaseURL         string
	CountryAreaCode string
	PerPage         int
	Workers         int
	ShuffleAreas    bool
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.hh.ru"
	}
	if c.CountryAreaCode == "" {
		c.CountryAreaCode = "113"
	}
	if c.PerPage <= 0 {
		c.PerPage = 100
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
}

// Driver executes the traversal: it seeds the area-discovery request, fans
// fetches out over a bounded worker pool, and finishes when the frontier is
// exhausted. Failures stay local to the branch that produced them; only
// context cancellation ends the run early.
type Driver struct {
	fetcher   harvest.Fetcher
	sink      harvest.Sink
	publisher harvest.Publisher
	cfg       Config
	tally     *harvest.Tally
	logger    *zap.Logger

	queue   *Queue
	seen    *SeenSet
	pending atomic.Int64
}

// New constructs a Driver. publisher may be nil to disable notifications.
func New(
	fetcher harvest.Fetcher,
	sink harvest.Sink,
	publisher harvest.Publisher,
	cfg Config,
	tally *harvest.Tally,
	logger *zap.Logger,
) *Driver {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if tally == nil {
		tally = &harvest.Tally{}
	}
	return &Driver{
		fetcher:   fetcher,
		sink:      sink,
		publisher: publisher,
		cfg:       cfg,
		tally:     tally,
		logger:    logger,
		queue:     NewQueue(),
		seen:      NewSeenSet(),
	}
}

// Run performs one harvest and returns the final tally. It blocks until
// every enqueued request has resolved or ctx is canceled; cancellation stops
// new fetches and lets in-flight work drain.
func (d *Driver) Run(ctx context.Context) harvest.TallySnapshot {
	d.enqueue(ctx, harvest.Request{
		Stage: harvest.StageAreaDiscovery,
		URL:   d.cfg.BaseURL + "/areas",
	})

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	return d.tally.Snapshot()
}

func (d *Driver) work(ctx context.Context) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	for {
		req, err := d.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		d.process(ctx, req)
		d.complete()
	}
}

// enqueue adds a request to the frontier unless the run is being canceled.
// The pending count covers both queued and in-flight requests; children are
// always enqueued before their parent completes, so the count never touches
// zero while discovery can still widen.
func (d *Driver) enqueue(ctx context.Context, req harvest.Request) {
	if ctx.Err() != nil {
		return
	}
	d.pending.Add(1)
	d.queue.Enqueue(req)
	metrics.SetQueueDepth(d.queue.Len())
}

func (d *Driver) complete() {
	metrics.SetQueueDepth(d.queue.Len())
	if d.pending.Add(-1) == 0 {
		d.queue.Close()
	}
}

func (d *Driver) process(ctx context.Context, req harvest.Request) {
	switch req.Stage {
	case harvest.StageAreaDiscovery:
		d.processAreas(ctx, req)
	case harvest.StageListingFirst, harvest.StageListingPage:
		d.processListing(ctx, req)
	case harvest.StageVacancyDetail:
		d.processDetail(ctx, req)
	default:
		d.logger.Error("unknown frontier stage", zap.String("stage", string(req.Stage)))
	}
}

func (d *Driver) fetch(ctx context.Context, req harvest.Request) ([]byte, bool) {
	start := time.Now()
	body, err := d.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		metrics.ObserveFetch(string(req.Stage), "error", time.Since(start))
		metrics.IncFailure("fetch")
		d.tally.IncFetchFailure()
		d.logger.Warn("fetch failed, branch abandoned",
			zap.String("stage", string(req.Stage)),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return nil, false
	}
	metrics.ObserveFetch(string(req.Stage), "ok", time.Since(start))
	return body, true
}

func (d *Driver) processAreas(ctx context.Context, req harvest.Request) {
	body, ok := d.fetch(ctx, req)
	if !ok {
		return
	}
	areaIDs, err := mapper.AreaTree(body, d.cfg.CountryAreaCode)
	if err != nil {
		d.tally.IncFetchFailure()
		d.logger.Warn("area tree mapping failed", zap.Error(err))
		return
	}
	if len(areaIDs) == 0 {
		d.tally.IncEmptyDiscovery()
		d.logger.Warn("area tree yielded no areas",
			zap.String("country_area_code", d.cfg.CountryAreaCode),
		)
		return
	}

	// Random traversal order spreads load across areas; it carries no
	// correctness weight.
	if d.cfg.ShuffleAreas {
		rand.Shuffle(len(areaIDs), func(i, j int) {
			areaIDs[i], areaIDs[j] = areaIDs[j], areaIDs[i]
		})
	}

	d.tally.AddAreas(len(areaIDs))
	d.logger.Info("areas discovered", zap.Int("count", len(areaIDs)))
	for _, areaID := range areaIDs {
		d.enqueue(ctx, harvest.Request{
			Stage:  harvest.StageListingFirst,
			URL:    d.listingURL(areaID, 0),
			AreaID: areaID,
		})
	}
}

func (d *Driver) processListing(ctx context.Context, req harvest.Request) {
	body, ok := d.fetch(ctx, req)
	if !ok {
		return
	}
	pages, vacancyIDs, err := mapper.ListingPage(body)
	if err != nil {
		d.tally.IncFetchFailure()
		d.logger.Warn("listing page mapping failed",
			zap.String("area_id", req.AreaID),
			zap.Int("page", req.Page),
			zap.Error(err),
		)
		return
	}
	d.tally.IncListingPage()

	if req.Stage == harvest.StageListingFirst && pages < 1 && len(vacancyIDs) == 0 {
		d.tally.IncEmptyDiscovery()
		d.logger.Warn("listing yielded no vacancies", zap.String("area_id", req.AreaID))
		return
	}

	for _, id := range vacancyIDs {
		d.enqueueDetail(ctx, id)
	}

	// Page 0 items were already scheduled above, and page 1 re-covers part
	// of them; the seen-set absorbs the overlap. Trimming the loop instead
	// would miss page-0-only items on APIs that number pages from 1.
	if req.Stage == harvest.StageListingFirst {
		for page := 1; page <= pages; page++ {
			d.enqueue(ctx, harvest.Request{
				Stage:  harvest.StageListingPage,
				URL:    d.listingURL(req.AreaID, page),
				AreaID: req.AreaID,
				Page:   page,
			})
		}
	}
}

func (d *Driver) enqueueDetail(ctx context.Context, vacancyID string) {
	if vacancyID == "" || !d.seen.Add(vacancyID) {
		return
	}
	d.enqueue(ctx, harvest.Request{
		Stage:     harvest.StageVacancyDetail,
		URL:       fmt.Sprintf("%s/vacancies/%s", d.cfg.BaseURL, vacancyID),
		VacancyID: vacancyID,
	})
}

func (d *Driver) processDetail(ctx context.Context, req harvest.Request) {
	d.tally.IncAttempted()
	body, ok := d.fetch(ctx, req)
	if !ok {
		return
	}
	record, err := mapper.VacancyDetail(body)
	if err != nil {
		// A structurally malformed payload will not improve on refetch.
		d.tally.IncMalformed()
		metrics.IncFailure("malformed_record")
		d.logger.Warn("vacancy detail mapping failed",
			zap.String("vacancy_id", req.VacancyID),
			zap.Error(err),
		)
		return
	}

	if err := d.sink.Upsert(ctx, record); err != nil {
		d.tally.IncSinkFailure()
		metrics.IncFailure("sink")
		d.logger.Error("sink upsert failed",
			zap.String("vacancy_id", record.ID),
			zap.Error(&harvest.SinkError{VacancyID: record.ID, Err: err}),
		)
		return
	}
	d.tally.IncPersisted()
	metrics.IncPersisted()

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, record.ID); err != nil {
			d.tally.IncPublishFailure()
			metrics.IncFailure("publish")
			d.logger.Warn("publish notification failed",
				zap.String("vacancy_id", record.ID),
				zap.Error(err),
			)
		}
	}
}

func (d *Driver) listingURL(areaID string, page int) string {
	url := fmt.Sprintf("%s/vacancies?per_page=%d&area=%s", d.cfg.BaseURL, d.cfg.PerPage, areaID)
	if page > 0 {
		url = fmt.Sprintf("%s&page=%d", url, page)
	}
	return url
}
