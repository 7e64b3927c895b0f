package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lindaliu1/endangered-ocean/internal/cache"
	"github.com/lindaliu1/endangered-ocean/internal/config"
	"github.com/lindaliu1/endangered-ocean/internal/model"
	"github.com/lindaliu1/endangered-ocean/internal/observability"
	"github.com/lindaliu1/endangered-ocean/internal/scrape"
)

var (
	scrapeLimit   int
	noCache       bool
	skipList      bool
	outDetails    string
	scrapeTimeout time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape NOAA species profiles and extract depth/threat data",
	Long: `Scrape walks the NOAA Fisheries endangered species directory, then
every listed profile page:
- Collect name, status, image, and the "Where They Live" narrative
- Derive habitat depth in meters from the narrative
- Normalize the threats section into canonical categories

Fetched pages are cached on disk, so re-runs only hit NOAA for pages
the cache has expired. Results land in the data directory as JSON
artifacts for the analyze and load commands.

Example:
  oceand scrape
  oceand scrape --limit 10 --no-cache
  oceand scrape --skip-list --out details.json`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	// Pipeline flags
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "scrape at most N profiles (0 = all)")
	scrapeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the page cache (force fresh fetches)")
	scrapeCmd.Flags().BoolVar(&skipList, "skip-list", false, "reuse the listing artifact instead of re-fetching the directory")
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 45*time.Minute, "overall scrape timeout")

	// Output flags
	scrapeCmd.Flags().StringVar(&outDetails, "out", "", "details artifact path (default: <data-dir>/"+scrape.DetailsArtifact+")")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if scrapeLimit > 0 {
		cfg.Scrape.Limit = scrapeLimit
	}
	if noCache {
		cfg.Scrape.Cache = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	logger := newLogger("scrape")
	metrics := observability.NewMetrics()

	var pages cache.Cache
	if cfg.Scrape.Cache {
		pages = cache.NewPageCache(cfg.CacheDir())
	}

	scraper := scrape.NewScraper(scrape.ScraperOptions{
		Fetcher: scrape.NewFetcher(scrape.FetcherOptions{
			Timeout:     cfg.Scrape.Timeout,
			UserAgent:   cfg.Scrape.UserAgent,
			Delay:       cfg.Scrape.Delay,
			HTTPProxy:   cfg.Scrape.HTTPProxy,
			HTTPSProxy:  cfg.Scrape.HTTPSProxy,
			Pages:       pages,
			CheckRobots: cfg.Scrape.CheckRobots,
			Metrics:     metrics,
			Logger:      logger,
		}),
		Workers: cfg.Scrape.Workers,
		Limit:   cfg.Scrape.Limit,
		Metrics: metrics,
		Logger:  logger,
	})

	listPath := cfg.ArtifactPath(scrape.ListArtifact)
	detailsPath := outDetails
	if detailsPath == "" {
		detailsPath = cfg.ArtifactPath(scrape.DetailsArtifact)
	}

	var (
		species []model.Species
		run     *model.ScrapeRun
	)
	if skipList {
		entries, err := scrape.LoadEntries(listPath)
		if err != nil {
			return fmt.Errorf("reuse listing: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Reusing %d listed species from %s\n", len(entries), listPath)
		species, run = scraper.Scrape(ctx, entries)
	} else {
		var entries []model.ListEntry
		entries, species, run, err = scraper.Run(ctx)
		if err != nil {
			return err
		}
		if err := scrape.WriteJSON(listPath, entries); err != nil {
			return fmt.Errorf("write listing: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Listed %d species -> %s\n", len(entries), listPath)
	}

	if err := scrape.WriteJSON(detailsPath, species); err != nil {
		return fmt.Errorf("write details: %w", err)
	}
	runPath := cfg.ArtifactPath(scrape.RunArtifact)
	if err := scrape.WriteJSON(runPath, run); err != nil {
		return fmt.Errorf("write run record: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Scraped %d of %d profiles -> %s\n", run.Scraped, run.Listed, detailsPath)
	if len(run.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "✗ %d profiles failed (details in %s)\n", len(run.Failures), runPath)
	}
	return nil
}
