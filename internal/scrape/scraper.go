package scrape

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lindaliu1/endangered-ocean/internal/depth"
	"github.com/lindaliu1/endangered-ocean/internal/model"
	"github.com/lindaliu1/endangered-ocean/internal/observability"
	"github.com/lindaliu1/endangered-ocean/internal/threat"
	"github.com/lindaliu1/endangered-ocean/internal/worker"
)

// DefaultWorkers is the profile fan-out width. The fetcher's shared
// rate limiter keeps concurrent workers polite to NOAA regardless.
const DefaultWorkers = 4

// ScraperOptions configures a Scraper.
type ScraperOptions struct {
	Fetcher *Fetcher
	Workers int

	// Limit caps how many profiles are scraped; 0 scrapes everything.
	Limit int

	// DirectoryURL overrides the species listing location.
	DirectoryURL string

	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// Scraper drives the pipeline: the directory listing, profile pages
// fanned out across workers, then depth and threat analysis per record.
type Scraper struct {
	fetcher    *Fetcher
	extractor  *depth.Extractor
	normalizer *threat.Normalizer
	workers    int
	limit      int
	listURL    string
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewScraper builds a Scraper from opts.
func NewScraper(opts ScraperOptions) *Scraper {
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewFetcher(FetcherOptions{Metrics: opts.Metrics, Logger: opts.Logger})
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.DirectoryURL == "" {
		opts.DirectoryURL = DirectoryURL
	}

	return &Scraper{
		fetcher:    opts.Fetcher,
		extractor:  depth.NewExtractor(),
		normalizer: threat.NewNormalizer(),
		workers:    opts.Workers,
		limit:      opts.Limit,
		listURL:    opts.DirectoryURL,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
}

// Directory fetches and parses the species listing.
func (s *Scraper) Directory(ctx context.Context) ([]model.ListEntry, error) {
	res, err := s.fetcher.FetchWithRetry(ctx, s.listURL)
	if err != nil {
		return nil, fmt.Errorf("fetch directory: %w", err)
	}

	entries, err := ParseDirectory(res.HTML, res.FinalURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("species", len(entries)).
		Bool("cached", res.Cached).
		Msg("directory listed")
	return entries, nil
}

// Details scrapes each listed profile and assembles full species
// records, sorted by common name. Failures are collected per entry
// rather than aborting the run.
func (s *Scraper) Details(ctx context.Context, entries []model.ListEntry) ([]model.Species, []model.ScrapeFailure) {
	if s.limit > 0 && len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	pool := worker.NewPool(s.workers)
	pool.Start()
	for i, entry := range entries {
		pool.Submit(&profileJob{scraper: s, ctx: ctx, index: i, entry: entry})
	}
	results := pool.Wait()

	ordered := make([]*profileResult, len(entries))
	for _, r := range results {
		if pr, ok := r.(*profileResult); ok {
			ordered[pr.index] = pr
		}
	}

	species := make([]model.Species, 0, len(entries))
	var failures []model.ScrapeFailure
	for i, pr := range ordered {
		if pr == nil {
			failures = append(failures, model.ScrapeFailure{
				SourceRecordID: entries[i].SourceRecordID,
				DetailURL:      entries[i].DetailURL,
				Error:          "not scraped",
			})
			continue
		}
		if pr.err != nil {
			s.logger.Error().
				Err(pr.err).
				Str("url", pr.entry.DetailURL).
				Msg("profile failed")
			failures = append(failures, model.ScrapeFailure{
				SourceRecordID: pr.entry.SourceRecordID,
				DetailURL:      pr.entry.DetailURL,
				Error:          pr.err.Error(),
			})
			continue
		}
		species = append(species, pr.species)
	}
	s.metrics.ProfileFailures.Add(float64(len(failures)))

	sort.Slice(species, func(i, j int) bool {
		a, b := species[i], species[j]
		an, bn := strings.ToLower(a.CommonName), strings.ToLower(b.CommonName)
		if an != bn {
			return an < bn
		}
		return a.SourceRecordID < b.SourceRecordID
	})

	return species, failures
}

// Run executes the full pipeline and reports a summary.
func (s *Scraper) Run(ctx context.Context) ([]model.ListEntry, []model.Species, *model.ScrapeRun, error) {
	s.logger.Info().Str("url", s.listURL).Msg("scraping species directory")
	entries, err := s.Directory(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	species, run := s.Scrape(ctx, entries)
	return entries, species, run, nil
}

// Scrape runs profile scraping over already-listed entries and wraps
// the outcome in a run record. Lets a reused listing artifact skip the
// directory fetch.
func (s *Scraper) Scrape(ctx context.Context, entries []model.ListEntry) ([]model.Species, *model.ScrapeRun) {
	run := &model.ScrapeRun{
		ID:        uuid.NewString(),
		ListURL:   s.listURL,
		StartedAt: time.Now().UTC(),
		Listed:    len(entries),
	}
	logger := s.logger.With().Str("run_id", run.ID).Logger()

	logger.Info().Int("species", len(entries)).Int("workers", s.workers).Msg("scraping profiles")
	species, failures := s.Details(ctx, entries)
	run.Scraped = len(species)
	run.Failures = failures
	run.FinishedAt = time.Now().UTC()

	s.metrics.SpeciesScraped.Set(float64(len(species)))
	logger.Info().
		Int("scraped", run.Scraped).
		Int("failed", len(failures)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("scrape complete")

	return species, run
}

func (s *Scraper) scrapeProfile(ctx context.Context, entry model.ListEntry) (model.Species, error) {
	page, err := s.fetcher.FetchWithRetry(ctx, entry.DetailURL)
	if err != nil {
		return model.Species{}, fmt.Errorf("fetch profile: %w", err)
	}

	profile, err := ParseProfile(page.HTML, page.FinalURL)
	if err != nil {
		return model.Species{}, err
	}

	sp := model.Species{
		Source:         entry.Source,
		SourceRecordID: entry.SourceRecordID,
		CommonName:     entry.CommonName,
		ScientificName: profile.ScientificName,
		Status:         profile.Status,
		DetailURL:      entry.DetailURL,
		ImageURL:       profile.ImageURL,
		DepthNotes:     profile.DepthNotes,
		RawThreats:     profile.RawThreats,
	}

	est := s.extractor.Extract(profile.DepthNotes)
	sp.MinDepthM = est.MinDepthM
	sp.MaxDepthM = est.MaxDepthM
	sp.DepthSource = est.Source
	sp.Threats = s.normalizer.Normalize(profile.RawThreats)

	s.metrics.DepthOutcomes.WithLabelValues(string(est.Source)).Inc()
	for _, category := range sp.Threats {
		s.metrics.ThreatCategories.WithLabelValues(category).Inc()
	}

	s.logger.Debug().
		Str("species", entry.CommonName).
		Bool("cached", page.Cached).
		Str("depth_source", string(est.Source)).
		Msg("profile scraped")

	return sp, nil
}

// profileJob fetches and parses one profile inside the worker pool. The
// index carries the entry's position so results can be re-ordered.
type profileJob struct {
	scraper *Scraper
	ctx     context.Context
	index   int
	entry   model.ListEntry
}

func (j *profileJob) Execute(poolCtx context.Context) worker.Result {
	res := &profileResult{index: j.index, entry: j.entry}
	if err := j.ctx.Err(); err != nil {
		res.err = err
		return res
	}
	if err := poolCtx.Err(); err != nil {
		res.err = err
		return res
	}
	res.species, res.err = j.scraper.scrapeProfile(j.ctx, j.entry)
	return res
}

type profileResult struct {
	index   int
	entry   model.ListEntry
	species model.Species
	err     error
}

func (r *profileResult) GetError() error {
	return r.err
}
